package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FormValidator struct {
	v *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &FormValidator{v: v}
}

func (fv *FormValidator) Validate(i any) error {
	return fv.v.Struct(i)
}

// FieldErrors maps form field names to a message for the template. Errors that are not
// validation errors come back under the "_" key.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = "Formulaire invalide."
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Adresse email invalide."
	case "min":
		return fmt.Sprintf("Au moins %s caractères.", fe.Param())
	case "max":
		return fmt.Sprintf("Au plus %s caractères.", fe.Param())
	case "eqfield":
		return "Les mots de passe ne correspondent pas."
	case "numeric":
		return "Nombre attendu."
	case "oneof":
		return "Valeur non autorisée."
	default:
		return "Valeur invalide."
	}
}
