package prompt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildRendersSections(t *testing.T) {
	out, err := Build(Spec{
		Purpose:      "Extract actors from a product description.",
		Background:   "Part of a requirements intake pipeline.",
		OutputFields: []Field{{Name: "actors", Type: "array", Required: true, Description: "list of actor objects"}},
		Constraints:  []string{"never invent actors"},
	}, map[string]string{"sentence": "a shop for plants"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, section := range []string{"[PURPOSE]", "[BACKGROUND]", "[INPUT]", "[OUTPUT]", "[CONSTRAINTS]", "[OUTPUT_FORMAT]"} {
		if !strings.Contains(out, section) {
			t.Fatalf("missing section %s in:\n%s", section, out)
		}
	}
	if !strings.Contains(out, "- actors (array, required): list of actor objects") {
		t.Fatalf("output field not rendered:\n%s", out)
	}
}

func TestBuildRejectsEmptySpec(t *testing.T) {
	if _, err := Build(Spec{}, nil); err == nil {
		t.Fatal("expected error for empty purpose")
	}
	if _, err := Build(Spec{Purpose: "p"}, nil); err == nil {
		t.Fatal("expected error for missing output fields")
	}
}

func TestDecodePlainJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := Decode(json.RawMessage(`{"name":"x"}`), &v); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Name != "x" {
		t.Fatalf("name = %q", v.Name)
	}
}

func TestDecodeFencedJSON(t *testing.T) {
	raw := json.RawMessage("```json\n{\"name\":\"x\"}\n```")
	var v struct {
		Name string `json:"name"`
	}
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Name != "x" {
		t.Fatalf("name = %q", v.Name)
	}
}

func TestDecodeJSONWithSurroundingProse(t *testing.T) {
	raw := json.RawMessage(`Here is the result: {"name":"x"} hope that helps`)
	var v struct {
		Name string `json:"name"`
	}
	if err := Decode(raw, &v); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Name != "x" {
		t.Fatalf("name = %q", v.Name)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var v any
	if err := Decode(json.RawMessage("not json at all"), &v); err == nil {
		t.Fatal("expected error")
	}
	if err := Decode(json.RawMessage("   "), &v); err == nil {
		t.Fatal("expected error for empty response")
	}
}
