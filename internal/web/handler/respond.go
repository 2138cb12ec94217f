package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ListEnvelope wraps list responses.
type ListEnvelope struct {
	Count  int64       `json:"count"`
	Result interface{} `json:"result"`
}

// ItemEnvelope wraps single-item and create/update responses.
type ItemEnvelope struct {
	ID     uint        `json:"id"`
	Result interface{} `json:"result"`
}

// MsgNotFound is the body of every 404 response.
const MsgNotFound = "Not found"

// NotFound renders the canonical 404 response.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": MsgNotFound})
}

// MethodNotAllowed renders a 405 for verbs a surface does not support.
func MethodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).
		JSON(fiber.Map{"message": "Method not allowed"})
}

// FieldErrors renders per-field validation messages under the given status.
func FieldErrors(c *fiber.Ctx, status int, fields map[string][]string) error {
	return c.Status(status).JSON(fiber.Map{"message": fields})
}

// SchemaError renders a cross-field validation message under the "_schema"
// key, the way single-field errors use the field name.
func SchemaError(c *fiber.Ctx, status int, msg string) error {
	return FieldErrors(c, status, map[string][]string{"_schema": {msg}})
}

// NewValidator creates a validator that reports fields by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// ValidationMessages converts a validator error into the per-field message
// map of the API's 400/422 responses.
func ValidationMessages(err error) map[string][]string {
	fields := make(map[string][]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_schema"] = []string{"Invalid payload"}

		return fields
	}

	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
	}

	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Missing data for required field."
	case "email":
		return "Not a valid email address."
	case "max":
		return "Longer than maximum length " + fe.Param() + "."
	case "min":
		return "Shorter than minimum length " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}
