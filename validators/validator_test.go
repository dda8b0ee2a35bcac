package validators

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Code string `json:"code" validate:"required"`
}

type sample struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"omitempty,email"`
	Kind  string `json:"kind" validate:"omitempty,oneof=free paid"`
	Page  int    `query:"page" validate:"gte=0,lte=10"`
	Items []item `json:"items" validate:"omitempty,min=1,dive"`
}

func TestStructMessages(t *testing.T) {
	assert.Nil(t, Struct(&sample{Name: "alice"}))

	errs := Struct(&sample{Name: "al", Email: "nope", Kind: "other", Page: 11, Items: []item{{}}})
	assert.Equal(t, map[string]string{
		"name":          "must be at least 3 characters long",
		"email":         "must be a valid email",
		"kind":          "must be one of free, paid",
		"page":          "must be <= 10",
		"items[0].code": "is required",
	}, errs)

	errs = Struct(&sample{})
	assert.Equal(t, "is required", errs["name"])
}

func newApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post("/items/:id", h, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": ID(c, "itemID"), "body": c.Locals("body")})
	})
	return app
}

func TestParamID(t *testing.T) {
	app := newApp(ParamID("id", "itemID"))

	for path, want := range map[string]int{
		"/items/7":   http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
		"/items/-1":  http.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/items/7", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, uint(7), out.ID)
}

func TestBody(t *testing.T) {
	app := newApp(Body[sample]("body"))
	post := func(body string) (int, map[string]interface{}) {
		req := httptest.NewRequest(http.MethodPost, "/items/1", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	code, out := post(`{"name":"alice"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", out["body"].(map[string]interface{})["name"])

	code, out = post(`{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body!", out["message"])

	code, out = post(``)
	assert.Equal(t, http.StatusBadRequest, code, "an empty body is still validated")
	assert.Equal(t, "is required", out["data"].(map[string]interface{})["name"])
}
