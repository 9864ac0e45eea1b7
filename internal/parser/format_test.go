package parser

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func sampleRecords() map[string]*models.Record {
	return map[string]*models.Record{
		"empty": {},
		"content only": {Content: "just text\n\nwith a blank line"},
		"tags only": {Tags: []string{"a", "b"}},
		"full": {
			Tags: []string{"contact"},
			Attributes: []models.Attribute{
				{Key: "Name", Value: "Favorite Person"},
				{Key: "Phone", Value: "1"},
				{Key: "Phone", Value: "2"},
				{Key: "Note", Value: ""},
			},
			Children: []models.Child{
				{Tag: "Employer", Record: &models.Record{
					Tags:       []string{"work"},
					Attributes: []models.Attribute{{Key: "Name", Value: "My Company"}},
					Children: []models.Child{
						{Tag: "Address", Record: &models.Record{
							Attributes: []models.Attribute{{Key: "City", Value: "Springfield"}},
						}},
					},
				}},
				{Tag: "Spouse", Record: &models.Record{
					Attributes: []models.Attribute{{Key: "Name", Value: "Someone Else"}},
				}},
			},
			Content: "free form\n",
		},
		"child with tags only": {
			Attributes: []models.Attribute{{Key: "Name", Value: "Bob"}},
			Children: []models.Child{
				{Tag: "Employer", Record: &models.Record{Tags: []string{"current", "remote"}}},
				{Tag: "Spouse", Record: &models.Record{
					Attributes: []models.Attribute{{Key: "Name", Value: "Ann"}},
				}},
			},
		},
		"child without attributes": {
			Children: []models.Child{
				{Tag: "Outer", Record: &models.Record{
					Children: []models.Child{
						{Tag: "Inner", Record: &models.Record{
							Attributes: []models.Attribute{{Key: "k", Value: "v"}},
						}},
					},
				}},
			},
		},
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for name, r := range sampleRecords() {
		t.Run(name, func(t *testing.T) {
			text := Format(r)
			got, err := Parse(text)
			if err != nil {
				t.Fatalf("Parse(%q): %v", text, err)
			}
			if !got.Equal(r) {
				t.Errorf("round trip mismatch\ntext: %q\ngot:  %+v\nwant: %+v", text, got, r)
			}
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	input := []byte("@x @y\n[A: 1]\n@Sub\n\t[B: 2]\n@z\n\ncontent")
	first, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(Format(first))
	if err != nil {
		t.Fatalf("Parse formatted: %v", err)
	}
	third, err := Parse(Format(second))
	if err != nil {
		t.Fatalf("Parse formatted twice: %v", err)
	}
	if !first.Equal(second) || !second.Equal(third) {
		t.Errorf("records diverge: %+v / %+v / %+v", first, second, third)
	}
}

func TestFormat_Layout(t *testing.T) {
	r := sampleRecords()["full"]
	want := "@contact\n" +
		"[Name: Favorite Person]\n" +
		"[Phone: 1]\n" +
		"[Phone: 2]\n" +
		"[Note: ]\n" +
		"@Employer @work\n" +
		"  [Name: My Company]\n" +
		"  @Address\n" +
		"    [City: Springfield]\n" +
		"@Spouse\n" +
		"  [Name: Someone Else]\n" +
		"\n" +
		"free form\n"
	if got := string(Format(r)); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_ChildWithTagsOnlySurvivesEdit(t *testing.T) {
	rec, err := Parse([]byte("[Name: Bob]\n@Employer\n  @current\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(rec.Children))
	}
	if err := rec.AddTags("friend"); err != nil {
		t.Fatalf("AddTags: %v", err)
	}

	text := Format(rec)
	if want := "@friend\n[Name: Bob]\n@Employer\n  @current\n"; string(text) != want {
		t.Errorf("Format = %q, want %q", text, want)
	}
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse formatted: %v", err)
	}
	if !got.Equal(rec) {
		t.Errorf("re-parsed = %+v, want %+v", got, rec)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "friend" {
		t.Errorf("root tags = %v, want [friend]", got.Tags)
	}
}
