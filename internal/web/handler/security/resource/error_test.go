package resource

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
)

func TestLoadErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown id", security.ErrViewMenuNotFound, fiber.StatusNotFound},
		{"malformed id", handler.ErrInvalidID, fiber.StatusNotFound},
		{"database failure", errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{}
			app := fiber.New()
			app.Get("/load", func(c *fiber.Ctx) error {
				return s.loadError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/load", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
