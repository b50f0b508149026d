package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

var ErrInvalidRequest = errors.New("invalid request")

// jsonSerializer encodes and decodes echo bodies with goccy/go-json
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field, ok := jsonFieldPath(reflect.TypeOf(i), typeErr.Struct, typeErr.Field, map[reflect.Type]bool{})
		if !ok {
			field = "field"
		}
		return fmt.Errorf("%s must be %s", field, kindName(typeErr.Type))
	}
	return err
}

// jsonFieldPath finds the dotted json path of the Go field reported by the decoder, searching every
// struct reachable from t.
func jsonFieldPath(t reflect.Type, structName, fieldName string, seen map[reflect.Type]bool) (string, bool) {
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct || seen[t] {
		return "", false
	}
	seen[t] = true

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if t.Name() == structName && f.Name == fieldName {
			return jsonName(f), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if path, ok := jsonFieldPath(f.Type, structName, fieldName, seen); ok {
			return jsonName(f) + "." + path, true
		}
	}
	return "", false
}

func jsonName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name == "-" {
			return ""
		}
		return jsonName(f)
	})
	return v
}

// bind decodes the body into req, fills tagged defaults and validates the result
func (s *Server) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return fmt.Errorf("%w, %v", ErrInvalidRequest, he.Message)
		}
		return fmt.Errorf("%w, %w", ErrInvalidRequest, err)
	}
	if err := defaults.Set(req); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidRequest, err)
	}
	if err := s.validate.StructCtx(c.Request().Context(), req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w, %s", ErrInvalidRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w, %w", ErrInvalidRequest, err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
