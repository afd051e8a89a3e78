package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/form"
	"gopkg.in/go-playground/validator.v9"

	"warbler/errs"
)

// formDecoder is shared by all handlers, as it caches struct info.
var formDecoder = form.NewDecoder()

// validate checks decoded forms against their validate tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("nowhitespace", noWhitespace); err != nil {
		panic(fmt.Sprintf("failed to install custom validator: %v", err))
	}
	if err := v.RegisterValidation("imageurl", isImageURL); err != nil {
		panic(fmt.Sprintf("failed to install custom validator: %v", err))
	}
	return v
}

// noWhitespace fails for strings containing any whitespace.
func noWhitespace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// isImageURL accepts absolute http(s) urls and paths on this site.
func isImageURL(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseForm reads the submitted form values of r into dst and validates them.
// Multipart forms are parsed as well, so their files are available on r afterwards.
// Any failure is returned as an errs.EINVALID error with a user facing message.
func parseForm(r *http.Request, dst interface{}) error {
	err := r.ParseMultipartForm(maxMultipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return errs.Errorf(errs.EINVALID, "The submitted form could not be read.")
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return errs.Errorf(errs.EINVALID, "The submitted form contains invalid values.")
	}
	if err := validate.Struct(dst); err != nil {
		return errs.Errorf(errs.EINVALID, validationMessage(err))
	}
	return nil
}

// validationMessage turns the first failed validation into a sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "The submitted form is invalid."
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", field)
	case "url", "imageurl":
		return fmt.Sprintf("%s must be a valid url.", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long.", field, fe.Param())
	case "nowhitespace":
		return fmt.Sprintf("%s must not contain spaces.", field)
	}
	return fmt.Sprintf("%s is invalid.", field)
}
