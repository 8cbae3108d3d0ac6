package router

import (
	"testing"
)

func TestParamParserString(t *testing.T) {
	type Params struct {
		ID string `param:"id"`
	}

	var p Params
	if err := NewParamParser().Parse(map[string]string{"id": "ChIJ3S-JXmauEmsRUcIaWtf4MzE"}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.ID != "ChIJ3S-JXmauEmsRUcIaWtf4MzE" {
		t.Errorf("ID = %q", p.ID)
	}
}

func TestParamParserNumbers(t *testing.T) {
	type Params struct {
		ID       int     `param:"id"`
		Big      int64   `param:"big"`
		Count    uint    `param:"count"`
		Distance float64 `param:"distance"`
		Open     bool    `param:"open"`
	}

	params := map[string]string{
		"id":       "7",
		"big":      "9223372036854775807",
		"count":    "42",
		"distance": "5.5",
		"open":     "true",
	}

	var p Params
	if err := NewParamParser().Parse(params, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.ID != 7 || p.Big != 9223372036854775807 || p.Count != 42 || p.Distance != 5.5 || !p.Open {
		t.Errorf("Parse() = %+v", p)
	}
}

func TestParamParserOverflow(t *testing.T) {
	type Params struct {
		Small int8 `param:"n"`
	}
	var p Params
	if err := NewParamParser().Parse(map[string]string{"n": "300"}, &p); err == nil {
		t.Error("expected overflow error for int8")
	}
}

func TestParamParserMissingParam(t *testing.T) {
	type Params struct {
		ID   string `param:"id"`
		Name string `param:"name"`
	}

	p := Params{Name: "default"}
	if err := NewParamParser().Parse(map[string]string{"id": "1"}, &p); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Name != "default" {
		t.Errorf("Name = %q, want untouched default", p.Name)
	}
}

func TestParamParserErrors(t *testing.T) {
	type IntParams struct {
		ID int `param:"id"`
	}
	type SliceParams struct {
		Parts []string `param:"id"`
	}

	tests := []struct {
		name   string
		target any
	}{
		{name: "invalid int", target: &IntParams{}},
		{name: "not pointer", target: IntParams{}},
		{name: "pointer to non-struct", target: new(string)},
		{name: "unsupported type", target: &SliceParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewParamParser().Parse(map[string]string{"id": "abc"}, tt.target); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParamParserNil(t *testing.T) {
	if err := NewParamParser().Parse(map[string]string{"id": "1"}, nil); err != nil {
		t.Errorf("Parse(nil) error = %v, want nil", err)
	}
}

func TestPropsDecode(t *testing.T) {
	var p struct {
		ID int `param:"id"`
	}
	if err := (Props{"id": "42"}).Decode(&p); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if p.ID != 42 {
		t.Errorf("ID = %d, want 42", p.ID)
	}
	if got := (Props{"id": "42"}).Get("id"); got != "42" {
		t.Errorf("Get(id) = %q", got)
	}
	if got := Props(nil).Get("id"); got != "" {
		t.Errorf("nil Props Get(id) = %q, want empty", got)
	}
}
