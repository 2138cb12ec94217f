package gormlogger_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger/adapter/gormlogger"
)

func TestLogModeReturnsSameAdapter(t *testing.T) {
	l := gormlogger.New()

	if got := l.LogMode(0); got != l {
		t.Error("LogMode should return the adapter unchanged")
	}
}

func TestTraceDoesNotPanic(t *testing.T) {
	l := gormlogger.New()

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	l.SlowThreshold = time.Nanosecond
	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 2", 0
	}, nil)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 3", 0
	}, gorm.ErrRecordNotFound)
}

func TestAdapterWorksWithGorm(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.New()})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
}
