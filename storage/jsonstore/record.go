package jsonstore

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

const (
	fieldConverted = "converted"
	fieldReset     = "reset"
)

type fieldRepair struct {
	field  string // JSON name
	action string // fieldConverted | fieldReset
}

// decodeRecord fills the struct pointed to by dst from the JSON object raw, one field at a time,
// so that a single ill-typed field never costs the whole record. Unknown keys are ignored.
func decodeRecord(raw json.RawMessage, dst interface{}) []fieldRepair {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	var fixes []fieldRepair
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		value, ok := lookup(obj, name)
		if !ok {
			continue
		}
		switch decodeField(value, v.Field(i)) {
		case fieldConverted:
			fixes = append(fixes, fieldRepair{field: name, action: fieldConverted})
		case fieldReset:
			fixes = append(fixes, fieldRepair{field: name, action: fieldReset})
		}
	}
	return fixes
}

// lookup matches keys the way encoding/json does: exact name first, then case-insensitively.
func lookup(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if value, ok := obj[name]; ok {
		return value, true
	}
	for key, value := range obj {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// decodeField returns "" when raw fits field as is, else fieldConverted or fieldReset.
func decodeField(raw json.RawMessage, field reflect.Value) string {
	raw = bytes.TrimSpace(raw)

	// JSON null reaches a pointer's own unmarshaler instead of leaving the pointer nil
	if field.Kind() == reflect.Ptr && bytes.Equal(raw, null) {
		elem := reflect.New(field.Type().Elem())
		if u, ok := elem.Interface().(json.Unmarshaler); ok && u.UnmarshalJSON(raw) == nil {
			field.Set(elem)
			return ""
		}
	}
	if err := json.Unmarshal(raw, field.Addr().Interface()); err == nil {
		return ""
	}
	field.Set(reflect.Zero(field.Type()))

	switch field.Kind() {
	case reflect.String:
		var n json.Number
		if json.Unmarshal(raw, &n) == nil {
			field.SetString(n.String())
			return fieldConverted
		}
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			field.SetString(strconv.FormatBool(b))
			return fieldConverted
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		text := string(raw)
		var s string
		if json.Unmarshal(raw, &s) == nil {
			text = strings.TrimSpace(s)
		}
		f, err := strconv.ParseFloat(text, 64)
		if err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 && !field.OverflowInt(int64(f)) {
			field.SetInt(int64(f))
			return fieldConverted
		}
	}
	return fieldReset
}
