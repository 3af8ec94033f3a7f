package binder

import (
	"encoding"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// PathExtractor returns the router parameter called name.
type PathExtractor func(r *http.Request, name string) string

// ChiParam reads parameters from the chi route context.
func ChiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// Path binds fields tagged `path:"name"`. Missing parameters leave the field
// untouched. Supported kinds are string, integers, bool and any type whose
// pointer implements encoding.TextUnmarshaler (uuid.UUID, for one).
func Path(extract PathExtractor) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extract == nil {
			return fmt.Errorf("%w: nil extractor", ErrFailedToParsePath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrFailedToParsePath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			sf := rt.Field(i)
			name := sf.Tag.Get("path")
			if name == "" || name == "-" || !sf.IsExported() {
				continue
			}
			raw := extract(r, name)
			if raw == "" {
				continue
			}
			if err := setPathValue(rv.Field(i), raw); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrFailedToParsePath, name, err)
			}
		}
		return nil
	}
}

func setPathValue(field reflect.Value, raw string) error {
	if field.Addr().Type().Implements(textUnmarshalerType) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}
