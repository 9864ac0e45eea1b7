package models

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func contact() *Record {
	return &Record{
		Tags: []string{"contact", "friend"},
		Attributes: []Attribute{
			{Key: "Name", Value: "Favorite Person"},
			{Key: "Phone", Value: "123"},
			{Key: "Phone", Value: "456"},
		},
		Children: []Child{
			{Tag: "Employer", Record: &Record{Attributes: []Attribute{{Key: "Name", Value: "My Company"}}}},
			{Tag: "Employer", Record: &Record{Attributes: []Attribute{{Key: "Name", Value: "Side Gig"}}}},
		},
	}
}

func TestResolve_RootKeyAllValues(t *testing.T) {
	got := contact().Resolve([]string{"Phone"})
	if len(got) != 2 || got[0] != "123" || got[1] != "456" {
		t.Errorf("Phone = %v, want [123 456]", got)
	}
}

func TestResolve_NestedFirstChildWins(t *testing.T) {
	got := contact().Resolve(SplitPath("Employer:Name"))
	if len(got) != 1 || got[0] != "My Company" {
		t.Errorf("Employer:Name = %v, want [My Company]", got)
	}
}

func TestResolve_MissingIsEmpty(t *testing.T) {
	r := contact()
	for _, p := range []string{"Address", "Spouse:Name", "Employer:Address", ""} {
		if got := r.Resolve(SplitPath(p)); len(got) != 0 {
			t.Errorf("Resolve(%q) = %v, want empty", p, got)
		}
	}
	var nilRec *Record
	if got := nilRec.Resolve([]string{"Name"}); got != nil {
		t.Errorf("nil record resolved %v", got)
	}
}

func TestResolve_CaseSensitive(t *testing.T) {
	if got := contact().Resolve([]string{"name"}); len(got) != 0 {
		t.Errorf("lower-case key resolved %v", got)
	}
}

func TestFields(t *testing.T) {
	got := contact().Fields()
	want := []string{"Name", "Phone", "Employer:Name"}
	if len(got) != len(want) {
		t.Fatalf("Fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := contact()
	c := r.Clone()
	if !r.Equal(c) {
		t.Fatal("clone differs from original")
	}
	c.Children[0].Record.Attributes[0].Value = "Changed"
	c.Tags[0] = "other"
	if r.Children[0].Record.Attributes[0].Value != "My Company" || r.Tags[0] != "contact" {
		t.Error("mutating the clone changed the original")
	}
}

func TestEqual_NilAndEmptySlices(t *testing.T) {
	a := &Record{Content: "x"}
	b := &Record{Tags: []string{}, Attributes: []Attribute{}, Children: []Child{}, Content: "x"}
	if !a.Equal(b) {
		t.Error("nil and empty slices should compare equal")
	}
}

func TestAddRemoveTags(t *testing.T) {
	r := contact()
	if err := r.AddTags("family", "friend"); err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if len(r.Tags) != 3 || r.Tags[2] != "family" {
		t.Errorf("tags = %v", r.Tags)
	}
	r.RemoveTags("contact", "missing")
	if r.HasTag("contact") {
		t.Error("contact tag should be removed")
	}
	if err := r.AddTags("two words"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateTag_RejectsUnicodeSpace(t *testing.T) {
	for _, tag := range []string{"a\vb", "a\fb", "a\u00a0b", "a\u2003b", "a\u0085b", "a@b"} {
		if err := ValidateTag(tag); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("ValidateTag(%q) = %v, want ErrInvalidInput", tag, err)
		}
	}
	if err := ValidateTag("café"); err != nil {
		t.Errorf("ValidateTag(%q) = %v, want nil", "café", err)
	}
}

func TestSetAttribute_CollapsesDuplicates(t *testing.T) {
	r := contact()
	if err := r.SetAttribute("Phone", "789"); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	got := r.Resolve([]string{"Phone"})
	if len(got) != 1 || got[0] != "789" {
		t.Errorf("Phone = %v, want [789]", got)
	}
	if err := r.SetAttribute("Email", "a@b.c"); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if r.Attributes[len(r.Attributes)-1].Key != "Email" {
		t.Errorf("new key not appended: %v", r.Attributes)
	}
}

func TestRemoveAttribute(t *testing.T) {
	r := contact()
	if n := r.RemoveAttribute("Phone"); n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if n := r.RemoveAttribute("Phone"); n != 0 {
		t.Errorf("removed = %d, want 0", n)
	}
}

func TestValidateAttribute(t *testing.T) {
	cases := []struct {
		key, value string
		ok         bool
	}{
		{"Name", "Bob", true},
		{"Name", "a: b", true},
		{"", "x", false},
		{"Na:me", "x", false},
		{"Name]", "x", false},
		{" Name", "x", false},
		{"Name", "x]", false},
		{"Name", " x", false},
		{"Name", "line\nbreak", false},
	}
	for _, c := range cases {
		err := ValidateAttribute(c.key, c.value)
		if (err == nil) != c.ok {
			t.Errorf("ValidateAttribute(%q, %q) = %v, want ok=%v", c.key, c.value, err, c.ok)
		}
	}
}
