package helpers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	httperrors "github.com/luiz-custodio/email-send/internal/http/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator retorna la instancia compartida (es segura para uso concurrente y cachea structs).
// Los nombres de campo salen del tag json, así el detalle coincide con lo que mandó el cliente.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct aplica los tags `validate` de v.
// Retorna ErrValidation (422) con un detalle por campo, o nil.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httperrors.ErrValidation.WithDetail(err.Error()).WithCause(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return httperrors.ErrValidation.WithDetail(strings.Join(msgs, "; ")).WithCause(err)
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: campo requerido", fe.Field())
	case "min":
		return fmt.Sprintf("%s: se requiere al menos %s elemento(s)", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s: %q no es un email válido", fe.Field(), fe.Value())
	}
	return fmt.Sprintf("%s: falla la regla %q", fe.Field(), fe.Tag())
}
