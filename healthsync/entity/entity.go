package entity

import (
	"reflect"

	"github.com/jinzhu/inflection"

	"github.com/hikmahealth/healthsync/healthsync/strcase"
)

// Entity is implemented by records that live in their own table.
type Entity interface {
	TableName() string
}

// DefaultTableName derives a table name from the struct type name:
// pluralized snake_case ("PatientAttribute" -> "patient_attributes").
func DefaultTableName(e any) string {
	t := reflect.TypeOf(e)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return inflection.Plural(strcase.ToSnakeCase(t.Name()))
}

// FieldMap flattens the exported fields of a struct into a column map. Keys
// come from the `db` tag when present, otherwise from the snake_cased field
// name; a `db:"-"` tag excludes the field. With ignoreNil set, fields whose
// value is nil are omitted.
func FieldMap(e any, ignoreNil bool) map[string]any {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strcase.ToSnakeCase(field.Name)
		}

		value := v.Field(i)
		if ignoreNil && isNil(value) {
			continue
		}
		out[name] = value.Interface()
	}
	return out
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
