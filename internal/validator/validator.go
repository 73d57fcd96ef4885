// Package validator wraps go-playground/validator with the domain rules and
// the Arabic messages shown to registrants and admins.
package validator

import (
	"encoding/base64"
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/odwyaty/internal/catalog"
)

// MaxImageBytes bounds inline (data URL) images.
const MaxImageBytes = 2 * 1024 * 1024

var (
	digitsRe  = regexp.MustCompile(`^\d+$`)
	arabicRe  = regexp.MustCompile(`^[\x{0600}-\x{06FF}\s]+$`)
	latinRe   = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	clockRe   = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	dataURLRe = regexp.MustCompile(`^data:image/([a-zA-Z]+);base64,(.*)$`)
)

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Validate when at least one rule fails.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

type Validator struct {
	validate *validator.Validate
}

// New registers the domain tags:
//
//	digits       only ASCII digits
//	arabic       Arabic letters and spaces
//	latin        Latin letters and spaces
//	governorate  a registry governorate name
//	entity       a configured entity name
//	category     an event category value
//	clock        HH:MM, 24h
//	imageref     http(s) URL or a JPG/PNG data URL
//	imagesize    data URL payload at most MaxImageBytes
func New(reg *catalog.Registry) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("digits", matches(digitsRe))
	v.RegisterValidation("arabic", matches(arabicRe))
	v.RegisterValidation("latin", matches(latinRe))
	v.RegisterValidation("clock", matches(clockRe))
	v.RegisterValidation("governorate", func(fl validator.FieldLevel) bool {
		_, ok := reg.Lookup(fl.Field().String())
		return ok
	})
	v.RegisterValidation("entity", func(fl validator.FieldLevel) bool {
		return reg.HasEntity(fl.Field().String())
	})
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return reg.HasCategory(fl.Field().String())
	})
	v.RegisterValidation("imageref", func(fl validator.FieldLevel) bool {
		return ImageRefOK(fl.Field().String())
	})
	v.RegisterValidation("imagesize", func(fl validator.FieldLevel) bool {
		return ImageSizeOK(fl.Field().String())
	})

	return &Validator{validate: v}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// RegisterStructValidation adds a cross-field rule for the given types.
// Report failures with sl.ReportError(value, jsonName, fieldName, tag, "").
func (v *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	v.validate.RegisterStructValidation(fn, types...)
}

// Validate checks i and returns Errors for rule failures. Other errors (a
// non-struct argument, say) are returned unchanged.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(Errors, 0, len(ve))
	seen := map[string]bool{}
	for _, fe := range ve {
		// first failure per field only
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag())})
	}
	return out
}

// ImageRefOK accepts an http(s) URL or a JPG/PNG data URL.
func ImageRefOK(s string) bool {
	if m := dataURLRe.FindStringSubmatch(s); m != nil {
		switch strings.ToLower(m[1]) {
		case "jpeg", "jpg", "png":
			return true
		}
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ImageSizeOK reports whether an inline image decodes to at most
// MaxImageBytes. URLs always pass.
func ImageSizeOK(s string) bool {
	m := dataURLRe.FindStringSubmatch(s)
	if m == nil {
		return true
	}
	payload := strings.TrimRight(m[2], "=")
	return base64.RawStdEncoding.DecodedLen(len(payload)) <= MaxImageBytes
}
