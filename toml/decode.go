package toml

import (
	"fmt"
	"reflect"
	"strings"
)

// Unmarshal decodes a TOML document into v, which must be a non-nil
// pointer to a struct. Struct fields match by their `toml:"name"` tag,
// falling back to the lowercased field name. Document keys the struct
// doesn't declare are ignored — a config document only overlays the
// fields it chooses to set, and the loader's defaults cover the rest.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("toml: Unmarshal target must be a non-nil pointer, got %T", v)
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("toml: Unmarshal target must point to a struct, got %T", v)
	}
	doc, err := parse(data)
	if err != nil {
		return err
	}
	return decodeTable(doc, rv.Elem())
}

// decodeTable assigns a parsed table's keys into a struct value.
func decodeTable(table document, rv reflect.Value) error {
	fields := fieldsByKey(rv.Type())
	for key, value := range table {
		idx, ok := fields[key]
		if !ok {
			continue
		}
		if err := decodeInto(rv.Field(idx), value); err != nil {
			return fmt.Errorf("%q: %v", key, err)
		}
	}
	return nil
}

// fieldsByKey maps a struct type's TOML key names to field indices.
func fieldsByKey(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("toml")
		if key == "" {
			key = strings.ToLower(f.Name)
		}
		out[key] = i
	}
	return out
}

// decodeInto assigns one parsed value to one destination, converting
// between the parser's leaf types and the field's kind.
func decodeInto(dst reflect.Value, value any) error {
	switch dst.Kind() {
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeInto(dst.Elem(), value)

	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return typeError(value, dst)
		}
		dst.SetString(s)

	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return typeError(value, dst)
		}
		dst.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := value.(int64)
		if !ok {
			return typeError(value, dst)
		}
		dst.SetInt(i)

	case reflect.Float32, reflect.Float64:
		switch n := value.(type) {
		case float64:
			dst.SetFloat(n)
		case int64:
			dst.SetFloat(float64(n))
		default:
			return typeError(value, dst)
		}

	case reflect.Slice:
		items, ok := value.([]any)
		if !ok {
			return typeError(value, dst)
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := decodeInto(out.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %v", i, err)
			}
		}
		dst.Set(out)

	case reflect.Struct:
		table, ok := value.(document)
		if !ok {
			return typeError(value, dst)
		}
		return decodeTable(table, dst)

	case reflect.Map:
		table, ok := value.(document)
		if !ok {
			return typeError(value, dst)
		}
		if dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("map key type %s unsupported", dst.Type().Key())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(table))
		for k, item := range table {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := decodeInto(elem, item); err != nil {
				return fmt.Errorf("[%q]: %v", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), elem)
		}
		dst.Set(out)

	default:
		return fmt.Errorf("field type %s unsupported", dst.Type())
	}
	return nil
}

func typeError(value any, dst reflect.Value) error {
	return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
}
