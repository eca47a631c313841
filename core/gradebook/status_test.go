package gradebook

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	var invalid Grade
	if err := json.Unmarshal([]byte(`"ninety"`), &invalid); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	grade := func(v float64) *Grade {
		g := NewGrade(v)
		return &g
	}

	tests := []struct {
		name  string
		grade *Grade
		want  Status
	}{
		{name: "absent", want: StatusNA},
		{name: "non-numeric", grade: &invalid, want: StatusInvalid},
		{name: "100", grade: grade(100), want: StatusExcellent},
		{name: "90", grade: grade(90), want: StatusExcellent},
		{name: "89.9", grade: grade(89.9), want: StatusGood},
		{name: "70", grade: grade(70), want: StatusGood},
		{name: "69", grade: grade(69), want: StatusNeedsHelp},
		{name: "60", grade: grade(60), want: StatusNeedsHelp},
		{name: "59", grade: grade(59), want: StatusAtRisk},
		{name: "0", grade: grade(0), want: StatusAtRisk},
		{name: "negative", grade: grade(-5), want: StatusAtRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.grade); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrade_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		numeric bool
		want    float64
	}{
		{name: "integer", in: `85`, numeric: true, want: 85},
		{name: "decimal", in: `85.5`, numeric: true, want: 85.5},
		{name: "string", in: `"85"`},
		{name: "null", in: `null`},
		{name: "bool", in: `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Grade
			if err := json.Unmarshal([]byte(tt.in), &g); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			v, ok := g.Float()
			if ok != tt.numeric || v != tt.want {
				t.Errorf("Float() = %v, %v; want %v, %v", v, ok, tt.want, tt.numeric)
			}
			out, err := json.Marshal(g)
			if err != nil {
				t.Fatalf("json.Marshal() failed: %v", err)
			}
			if string(out) != tt.in {
				t.Errorf("json.Marshal() = %s, want %s", out, tt.in)
			}
		})
	}
}

func TestClassify_null(t *testing.T) {
	var g Grade
	if err := json.Unmarshal([]byte(`null`), &g); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if !g.IsNull() {
		t.Fatalf("IsNull() = false, want true")
	}
	if got := Classify(&g); got != StatusNA {
		t.Errorf("Classify() = %v, want %v", got, StatusNA)
	}
	if IntGrade(0).IsNull() {
		t.Errorf("IntGrade(0).IsNull() = true, want false")
	}
}
