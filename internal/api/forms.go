package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neexbeast/travelplanner/internal/auth"
	"github.com/neexbeast/travelplanner/internal/travel"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// registerForm mirrors the registration form fields.
type registerForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"max=150,text"`
	LastName  string `form:"last_name" validate:"max=150,text"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("text", func(fl validator.FieldLevel) bool {
		return travel.IsStorableText(fl.Field().String())
	})
	return v
}

func parseRegisterForm(r *http.Request) registerForm {
	return registerForm{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

// values echoes the non-secret fields back into the form.
func (f registerForm) values() map[string]string {
	return map[string]string{
		"username":   f.Username,
		"first_name": f.FirstName,
		"last_name":  f.LastName,
	}
}

// validate returns field errors keyed by form field name. The password
// policy only runs once both passwords are present and equal.
func (f registerForm) validate(v *validator.Validate) (map[string][]string, error) {
	errs := map[string][]string{}

	if err := v.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validating register form: %w", err)
		}
		for _, fe := range verrs {
			errs[fe.Field()] = append(errs[fe.Field()], fieldMessage(fe))
		}
	}

	if len(errs["password1"]) == 0 && len(errs["password2"]) == 0 {
		if problems := auth.ValidatePassword(f.Password2, f.Username); len(problems) > 0 {
			errs["password2"] = append(errs["password2"], problems...)
		}
	}

	return errs, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "text":
		return "Enter valid text."
	case "eqfield":
		return "The two password fields didn't match."
	}
	return "Enter a valid value."
}
