package apierror

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partyBody struct {
	Name  string `json:"name" validate:"required,min=3"`
	Phone string `json:"phone" validate:"required,phone10"`
}

func TestBindBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Post("/", func(c *fiber.Ctx) error {
		var body partyBody
		if err := BindBody(c, &body); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	send := func(payload string) int {
		req := httptest.NewRequest("POST", "/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 204, send(`{"name":"Ravi","phone":"9876543210"}`))
	assert.Equal(t, 400, send(`{"name":"Ra","phone":"9876543210"}`))
	assert.Equal(t, 400, send(`{"name":"Ravi","phone":"98765"}`))
	assert.Equal(t, 400, send(`{"name":"Ravi","phone":"98765x3210"}`))
	assert.Equal(t, 400, send(`not json`))
}
