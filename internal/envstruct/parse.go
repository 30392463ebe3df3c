// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("v must be a pointer to a struct")
	ErrParse        = errors.New("parse environment variable")
)

//nolint:gochecknoglobals // lookup table for reflect type comparison.
var durationType = reflect.TypeFor[time.Duration]()

// Populate sets the tagged fields of the struct pointed to by v.
//
// Fields opt in with `env:"NAME"`. When lookupEnv, which has the signature of [os.LookupEnv], does not know NAME
// the value of `envDefault:"..."` is used, and without a default ErrEnvNotSet is reported. Supported field types
// are string, bool, int and time.Duration. All field errors are joined into the returned error.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptrRef := reflect.ValueOf(v)
	if ptrRef.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: not pointer: %v", ErrInvalidValue, v)
	}
	ref := ptrRef.Elem()
	if ref.Kind() != reflect.Struct {
		return fmt.Errorf("%w: not struct: %v", ErrInvalidValue, v)
	}

	var errs []error
	refType := ref.Type()
	for i := range refType.NumField() {
		field := refType.Field(i)
		name, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		fieldValue := ref.Field(i)
		if !fieldValue.CanSet() {
			errs = append(errs, fmt.Errorf("%w: cannot set field: %s", ErrInvalidValue, field.Name))
			continue
		}
		raw, err := lookup(name, field.Tag, lookupEnv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = set(fieldValue, raw); err != nil {
			errs = append(errs, fmt.Errorf("field %s, env %s: %w", field.Name, name, err))
		}
	}
	return errors.Join(errs...)
}

func lookup(name string, tag reflect.StructTag, lookupEnv func(string) (string, bool)) (string, error) {
	if val, ok := lookupEnv(name); ok {
		return val, nil
	}
	if val, ok := tag.Lookup("envDefault"); ok {
		return val, nil
	}
	return "", fmt.Errorf("%w: %s", ErrEnvNotSet, name)
}

func set(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() { //nolint:exhaustive // everything else is unsupported.
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("%w: unsupported type %s", ErrInvalidValue, field.Type())
	}
	return nil
}
