package atlas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ATLASIDLength is the number of digits in an ATLAS object ID.
const ATLASIDLength = 19

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("atlasid", func(fl validator.FieldLevel) bool {
		return IsATLASID(fl.Field().String())
	})
	return v
}

// IsATLASID reports whether id is a 19 digit ATLAS object ID.
func IsATLASID(id string) bool {
	if len(id) != ATLASIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateATLASID returns a RequestError when id is not an ATLAS object ID.
func ValidateATLASID(id string) error {
	if !IsATLASID(id) {
		return requestErr("atlas id %q must be a %d digit integer", id, ATLASIDLength)
	}
	return nil
}

// validateQuery runs the struct tags on q and flattens failures into one
// RequestError.
func validateQuery(q any) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Msg: "invalid query", Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return requestErr("invalid query: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "atlasid":
		return fmt.Sprintf("%s %q must be a %d digit integer", fe.Field(), fe.Value(), ATLASIDLength)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte", "gt", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a %s date", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}
