package helper

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/constants"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return constants.IsValidRole(fl.Field().String())
	})
	return v
}

// ValidateStruct runs validator tags and returns per-field messages, nil when valid.
func ValidateStruct(s any) map[string][]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string][]string{"_": {err.Error()}}
	}
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = append(out[fe.Field()], validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid e-mail"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "role":
		return "must be one of " + strings.Join(constants.AllRoles, " ")
	case "uuid", "uuid4":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

// BindAndValidate parses the body into dst and validates it.
// On failure the error response is already written; callers return the result directly.
func BindAndValidate(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if errs := ValidateStruct(dst); errs != nil {
		return false, JsonValidationError(c, errs)
	}
	return true, nil
}
