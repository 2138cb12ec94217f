package dsn

import (
	"testing"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: "mysql",
				User:       "rbac",
				Password:   "pw",
				Host:       "db",
				Port:       3306,
				Name:       "security",
				Extras:     "parseTime=True",
			},
			want: "rbac:pw@tcp(db:3306)/security?parseTime=True",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: "postgres",
				User:       "rbac",
				Password:   "pw",
				Host:       "db",
				Port:       5432,
				Name:       "security",
				Extras:     "sslmode=disable",
			},
			want: "host=db user=rbac password=pw dbname=security port=5432 sslmode=disable",
		},
		{
			name: "sqlite file",
			db: config.DB{
				GormEngine: "sqlite",
				Name:       "/var/lib/rbac/security.db",
			},
			want: "/var/lib/rbac/security.db",
		},
		{
			name: "sqlite in-memory",
			db: config.DB{
				GormEngine: "sqlite",
			},
			want: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DB: tt.db}
			if got := Create(cfg); got != tt.want {
				t.Errorf("Create() = %q, want %q", got, tt.want)
			}
		})
	}
}
