package gateway

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// fieldMessages holds the client-facing text per "field.tag".
var fieldMessages = map[string]string{
	"itemId.required":      "itemId must not be null",
	"start.required":       "start must not be null",
	"start.gte":            "start must be a date in the present or in the future",
	"end.required":         "end must not be null",
	"end.gt":               "end must be a future date",
	"name.notblank":        "The name cannot be empty",
	"description.notblank": "The description cannot be empty",
	"available.required":   "The availability cannot be null",
	"requestId.gt":         "requestId must be positive",
	"email.notblank":       "The email cannot be empty",
	"email.email":          "Invalid mail format",
	"text.notblank":        "The text cannot be empty",
}

type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if ts, ok := field.Interface().(models.Timestamp); ok {
			return ts.Time
		}
		return nil
	}, models.Timestamp{})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	return &inputValidator{v: v}
}

// Struct returns one message per violated rule, or nil.
func (iv *inputValidator) Struct(s any) []string {
	return iv.messages(iv.v.Struct(s))
}

// Email checks a single optional email value.
func (iv *inputValidator) Email(email string) []string {
	if err := iv.v.Var(email, "email"); err != nil {
		return []string{fieldMessages["email.email"]}
	}
	return nil
}

func (iv *inputValidator) messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return out
}
