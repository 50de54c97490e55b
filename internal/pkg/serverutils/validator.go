package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"growny-ai-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// error messages use the `label` tag, then the json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest checks struct tags and returns a ValidationError naming the first bad field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.NewValidation("Invalid request")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		return apperror.NewValidation(fmt.Sprintf("%s cannot be empty", fe.Field()))
	case "max":
		return apperror.NewValidation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return apperror.NewValidation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
