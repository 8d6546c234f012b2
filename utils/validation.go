package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so error keys match the request payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes bounds the encoded length; bcrypt refuses passwords over 72 bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// BindJSON decodes the request body into dst. A missing or malformed body leaves dst
// zeroed so that the caller's validation reports the missing fields.
func BindJSON(ctx *gin.Context, dst interface{}) {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		rv := reflect.ValueOf(dst).Elem()
		rv.Set(reflect.Zero(rv.Type()))
	}
}

// ValidateStruct checks s against its `validate` tags and returns the failures keyed by
// JSON field name. It returns nil when s is valid.
func ValidateStruct(s interface{}) map[string][]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(fmt.Sprintf("validate %T: %v", s, err))
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], validationMessage(fe))
	}
	return out
}

// AddFieldError appends msg under field, allocating the map when needed.
func AddFieldError(fields map[string][]string, field, msg string) map[string][]string {
	if fields == nil {
		fields = map[string][]string{}
	}
	fields[field] = append(fields[field], msg)
	return fields
}

func validationMessage(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", attr)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", attr, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("The %s field must not be greater than %s bytes.", attr, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", attr, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", attr)
	default:
		return fmt.Sprintf("The %s field is invalid.", attr)
	}
}
