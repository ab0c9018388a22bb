package topology

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// ValidatedOptions is the only input accepted by Build. It can only be
// obtained from Validate.
type ValidatedOptions struct {
	opts      Options
	adminHost HostAddress
	exposure  *ExposureSource
}

// Options returns the validated options with defaults applied.
func (v ValidatedOptions) Options() Options {
	return v.opts
}

// AdministratorHost returns the parsed administrator source address.
func (v ValidatedOptions) AdministratorHost() HostAddress {
	return v.adminHost
}

// Exposure returns the parsed exposure source, or false when exposure was not
// requested.
func (v ValidatedOptions) Exposure() (ExposureSource, bool) {
	if v.exposure == nil {
		return ExposureSource{}, false
	}
	return *v.exposure, true
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml option names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("rdsident", isRdsIdentifier); err != nil {
		panic(err)
	}
	return v
}

// isRdsIdentifier accepts names usable as instance identifier, database name
// and secret name at once: a letter followed by letters or digits.
func isRdsIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for i, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Validate applies defaults to opts and checks every option. All problems are
// reported together as *ConfigurationError values combined with multierr.
func Validate(opts Options) (ValidatedOptions, error) {
	opts = opts.WithDefaults()

	var errs error
	if err := structValidator.Struct(opts); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return ValidatedOptions{}, fmt.Errorf("validating options: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = multierr.Append(errs, &ConfigurationError{Field: fe.Field(), Reason: describeTag(fe)})
		}
	}

	if opts.RotationInterval%time.Hour != 0 {
		errs = multierr.Append(errs, &ConfigurationError{Field: "rotationInterval", Reason: "must be a whole number of hours"})
	}

	out := ValidatedOptions{opts: opts}

	if opts.AdministratorSourceAddress != "" {
		host, err := ParseHostAddress(opts.AdministratorSourceAddress)
		if err != nil {
			errs = multierr.Append(errs, &ConfigurationError{Field: "administratorSourceAddress", Reason: err.Error()})
		}
		out.adminHost = host
	}

	if opts.WithExposure && opts.ExposureSourceAddress != "" {
		src, err := ParseExposureSource(opts.ExposureSourceAddress)
		if err != nil {
			errs = multierr.Append(errs, &ConfigurationError{Field: "exposureSourceAddress", Reason: err.Error()})
		}
		out.exposure = &src
	}

	if errs != nil {
		return ValidatedOptions{}, errs
	}
	return out, nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when withExposure is true"
	case "rdsident":
		return "must start with a letter and contain only letters and digits"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		if fe.Field() == "rotationInterval" {
			return fmt.Sprintf("must be at least %s (rotation schedule minimum)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		if fe.Field() == "rotationInterval" {
			return fmt.Sprintf("must be at most %s (1000 days)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
