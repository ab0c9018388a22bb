package config

import (
	"fmt"
	"reflect"
	"strings"
)

// OptionDescriptor describes one option field: where it is read from and the
// value it currently holds.
type OptionDescriptor struct {
	FieldName string
	// Key is the yaml/toml key.
	Key      string
	EnvName  string
	Value    string
	Required bool
}

// GetOptionDescriptors introspects a non-nil pointer to an options struct.
// Fields without an `env` tag are skipped. Zero values are reported as "".
//
// Example:
//
//	type Options struct {
//	    ApplicationName string `yaml:"applicationName" env:"APP_NAME" validate:"required"`
//	}
//
//	descriptors, err := GetOptionDescriptors(&Options{})
func GetOptionDescriptors(opts interface{}) ([]OptionDescriptor, error) {
	val := reflect.ValueOf(opts)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, fmt.Errorf("options must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("options must point to a struct")
	}
	typ := elem.Type()

	var descriptors []OptionDescriptor
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		d := OptionDescriptor{
			FieldName: field.Name,
			Key:       strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0],
			EnvName:   strings.SplitN(envTag, ",", 2)[0],
		}
		if d.Key == "" {
			d.Key = field.Name
		}

		fv := elem.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				fv = reflect.Value{}
			} else {
				fv = fv.Elem()
			}
		}
		if fv.IsValid() && !fv.IsZero() {
			d.Value = fmt.Sprintf("%v", fv.Interface())
		}

		for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
			if rule == "required" {
				d.Required = true
				break
			}
		}

		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}
