package placeholder

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/structology/visitor"
)

// Lookup returns a run state value for the supplied key
type Lookup func(key string) (interface{}, bool)

// MapLookup returns lookup backed by a map
func MapLookup(values map[string]interface{}) Lookup {
	return func(key string) (interface{}, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// Overlay returns lookup consulting values before the base lookup
func Overlay(base Lookup, values map[string]interface{}) Lookup {
	return func(key string) (interface{}, bool) {
		if value, ok := values[key]; ok {
			return value, true
		}
		if base == nil {
			return nil, false
		}
		return base(key)
	}
}

// Resolve substitutes placeholders in strings, maps and slices. A string that
// consists of exactly one placeholder resolves to the typed value.
func Resolve(value interface{}, lookup Lookup) (interface{}, error) {
	var err error
	switch actual := value.(type) {
	case string:
		return ResolveString(actual, lookup)
	case map[string]interface{}:
		resolved := make(map[string]interface{}, len(actual))
		visit := visitor.MapVisitorOf[string, interface{}](actual)
		err = visit(func(key string, element interface{}) (bool, error) {
			item, rErr := Resolve(element, lookup)
			if rErr != nil {
				return false, rErr
			}
			resolved[key] = item
			return true, nil
		})
		return resolved, err
	case map[string]string:
		resolved := make(map[string]interface{}, len(actual))
		for key, element := range actual {
			if resolved[key], err = ResolveString(element, lookup); err != nil {
				return nil, err
			}
		}
		return resolved, nil
	case []interface{}:
		resolved := make([]interface{}, len(actual))
		for i, item := range actual {
			if resolved[i], err = Resolve(item, lookup); err != nil {
				return nil, err
			}
		}
		return resolved, nil
	case []string:
		resolved := make([]interface{}, len(actual))
		for i, item := range actual {
			if resolved[i], err = ResolveString(item, lookup); err != nil {
				return nil, err
			}
		}
		return resolved, nil
	default:
		return actual, nil
	}
}

// ResolveString substitutes placeholders in text
func ResolveString(text string, lookup Lookup) (interface{}, error) {
	fragments := scan(text)
	if len(fragments) == 1 && fragments[0].expr != nil {
		return evaluate(fragments[0].expr, lookup)
	}
	builder := strings.Builder{}
	for _, f := range fragments {
		if f.expr == nil {
			builder.WriteString(f.literal)
			continue
		}
		value, err := evaluate(f.expr, lookup)
		if err != nil {
			return nil, err
		}
		builder.WriteString(Stringify(value))
	}
	return builder.String(), nil
}

// Evaluate evaluates a bare expression, e.g. source_count or rows[0][1]
func Evaluate(text string, lookup Lookup) (interface{}, error) {
	expr, err := Parse(strings.Trim(text, "{}"))
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", text, err)
	}
	return evaluate(expr, lookup)
}

func evaluate(expr *Expression, lookup Lookup) (interface{}, error) {
	if lookup == nil {
		return nil, unresolved(expr, "no run state")
	}
	current, ok := lookup(expr.Root)
	if !ok {
		return nil, unresolved(expr, fmt.Sprintf("key %q is not defined", expr.Root))
	}
	for _, segment := range expr.Segments {
		if segment.IsIndex {
			if current, ok = getArrayElement(current, segment.Index); !ok {
				return nil, unresolved(expr, fmt.Sprintf("index %d is out of range", segment.Index))
			}
			continue
		}
		if current, ok = getProperty(current, segment.Field); !ok {
			return nil, unresolved(expr, fmt.Sprintf("field %q is not defined", segment.Field))
		}
	}
	return current, nil
}

func unresolved(expr *Expression, message string) error {
	return &failure.Error{
		Kind:    failure.UnresolvedPlaceholder,
		Message: fmt.Sprintf("{%s}: %s", expr.Text, message),
		Values:  map[string]interface{}{"placeholder": expr.Text},
	}
}

// getProperty reads a map key or struct field; struct fields match by json tag
// or case-insensitive name.
func getProperty(obj interface{}, prop string) (interface{}, bool) {
	if obj == nil {
		return nil, false
	}
	if mapObj, ok := obj.(map[string]interface{}); ok {
		val, exists := mapObj[prop]
		return val, exists
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, false
		}
		val = val.Elem()
	}
	switch val.Kind() {
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := val.MapIndex(reflect.ValueOf(prop).Convert(val.Type().Key()))
		if !v.IsValid() || !v.CanInterface() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Struct:
	default:
		return nil, false
	}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == prop || strings.EqualFold(field.Name, prop) {
			return val.Field(i).Interface(), true
		}
	}
	return nil, false
}

// getArrayElement extracts an element from an array or slice using reflection
func getArrayElement(obj interface{}, index int) (interface{}, bool) {
	switch arr := obj.(type) {
	case []interface{}:
		if index >= 0 && index < len(arr) {
			return arr[index], true
		}
		return nil, false
	case []string:
		if index >= 0 && index < len(arr) {
			return arr[index], true
		}
		return nil, false
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, false
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Array && val.Kind() != reflect.Slice {
		return nil, false
	}
	if index < 0 || index >= val.Len() {
		return nil, false
	}
	return val.Index(index).Interface(), true
}

// Stringify converts a value to its text form for interpolation; lists, maps and structs are JSON encoded
func Stringify(val interface{}) string {
	if val == nil {
		return ""
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	}
	switch actual := val.(type) {
	case []byte:
		return string(actual)
	case error:
		return actual.Error()
	case fmt.Stringer:
		return actual.String()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Ptr:
		if data, err := json.Marshal(val); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", val)
}
