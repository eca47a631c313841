package gradebook

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	assignmentTypeTag  = "assignment_type"
	assignmentTypeText = "{0} must be one of: " + strings.Join(AssignmentTypes, ", ")
)

func init() {
	_ = core.Validate.RegisterValidation(assignmentTypeTag, assignmentTypeValidation)
	core.RegisterCustomTranslation(assignmentTypeTag, assignmentTypeText)
}

// assignmentTypeValidation checks that the field is one of AssignmentTypes.
func assignmentTypeValidation(fl validator.FieldLevel) bool {
	return contains(AssignmentTypes, fl.Field().String())
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}

// Value is a loosely typed input: JSON strings and numbers both decode into it.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*v = Value(n.String())
		return nil
	}
	return &json.UnmarshalTypeError{Value: jsonKind(b), Type: reflect.TypeOf(*v)}
}

func jsonKind(b []byte) string {
	switch {
	case len(b) == 0:
		return "empty"
	case b[0] == '{':
		return "object"
	case b[0] == '[':
		return "array"
	case b[0] == 't' || b[0] == 'f':
		return "bool"
	}
	return "value"
}

// Int parses v as a whole number. Integral decimals such as "85.0" are accepted.
func (v Value) Int() (int, bool) {
	s := strings.TrimSpace(string(v))
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// IsBlank reports whether no value was given.
func (v *Value) IsBlank() bool {
	return v == nil || strings.TrimSpace(string(*v)) == ""
}
