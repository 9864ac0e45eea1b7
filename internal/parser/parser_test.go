package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestParse_TagsAttributesContent(t *testing.T) {
	input := []byte("@contact @friend\n[Name: Favorite Person]\n[Phone: 123: ext 4]\n\nMet at the conference.\nSecond line.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "contact" || r.Tags[1] != "friend" {
		t.Errorf("tags = %v, want [contact friend]", r.Tags)
	}
	if len(r.Attributes) != 2 {
		t.Fatalf("attributes = %v", r.Attributes)
	}
	if r.Attributes[1].Key != "Phone" || r.Attributes[1].Value != "123: ext 4" {
		t.Errorf("attribute = %+v, want Phone / 123: ext 4", r.Attributes[1])
	}
	if r.Content != "Met at the conference.\nSecond line.\n" {
		t.Errorf("content = %q", r.Content)
	}
}

func TestParse_NoBlankLineMeansNoContent(t *testing.T) {
	r, err := Parse([]byte("@a\n[k: v]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "" {
		t.Errorf("content = %q, want empty", r.Content)
	}
}

func TestParse_ContentIsNeverReparsed(t *testing.T) {
	r, err := Parse([]byte("[k: v]\n\n@not-a-tag\n[not: attr]\n\nplain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Tags) != 0 || len(r.Attributes) != 1 {
		t.Errorf("header = %v %v", r.Tags, r.Attributes)
	}
	if r.Content != "@not-a-tag\n[not: attr]\n\nplain" {
		t.Errorf("content = %q", r.Content)
	}
}

func TestParse_EmptyHeader(t *testing.T) {
	r, err := Parse([]byte("\nonly content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "only content" || len(r.Attributes) != 0 {
		t.Errorf("record = %+v", r)
	}
}

func TestParse_JoinedTagMarkers(t *testing.T) {
	r, err := Parse([]byte("@a@b @c\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(r.Tags, ",") != "a,b,c" {
		t.Errorf("tags = %v, want [a b c]", r.Tags)
	}
}

func TestParse_CRLF(t *testing.T) {
	r, err := Parse([]byte("@a\r\n[k: v]\r\n\r\nbody\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Attributes[0].Value != "v" || r.Content != "body\r\n" {
		t.Errorf("record = %+v", r)
	}
}

func TestParse_NestedSubRecords(t *testing.T) {
	input := `@contact
[Name: Favorite Person]
@Employer @work
  [Name: My Company]
  @Address
    [City: Springfield]
  [Phone: 555]
@Spouse
  [Name: Someone Else]
@friend
[Email: fav@example.com]

notes
`
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(r.Tags, ",") != "contact,friend" {
		t.Errorf("root tags = %v, want [contact friend]", r.Tags)
	}
	if len(r.Attributes) != 2 || r.Attributes[1].Key != "Email" {
		t.Errorf("root attributes = %v", r.Attributes)
	}
	if len(r.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(r.Children))
	}
	emp := r.Children[0]
	if emp.Tag != "Employer" || strings.Join(emp.Record.Tags, ",") != "work" {
		t.Errorf("employer = %q %v", emp.Tag, emp.Record.Tags)
	}
	if got := r.Resolve(models.SplitPath("Employer:Phone")); len(got) != 1 || got[0] != "555" {
		t.Errorf("Employer:Phone = %v, want [555]", got)
	}
	if got := r.Resolve(models.SplitPath("Employer:Address:City")); len(got) != 1 || got[0] != "Springfield" {
		t.Errorf("Employer:Address:City = %v, want [Springfield]", got)
	}
	if got := r.Resolve(models.SplitPath("Spouse:Name")); len(got) != 1 || got[0] != "Someone Else" {
		t.Errorf("Spouse:Name = %v, want [Someone Else]", got)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
	}{
		{"unbalanced", "@a\n[Name: Bob\n", 2},
		{"two attributes", "[a: 1] [b: 2]\n", 1},
		{"tag with attribute", "@a [k: v]\n", 1},
		{"attribute with tag", "[k: v] @a\n", 1},
		{"missing colon", "[Name Bob]\n", 1},
		{"empty key", "[: Bob]\n", 1},
		{"bare marker", "@a @\n", 1},
		{"no marker", "@a b\n", 1},
		{"plain text", "[k: v]\nhello\n", 2},
		{"nested bracket", "[k: [v]]\n", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.in))
			if !errors.Is(err, ErrMalformedHeader) {
				t.Fatalf("err = %v, want ErrMalformedHeader", err)
			}
			var he *HeaderError
			if !errors.As(err, &he) {
				t.Fatalf("err is not a *HeaderError: %T", err)
			}
			if he.Line != c.line {
				t.Errorf("line = %d, want %d", he.Line, c.line)
			}
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	if _, err := Parse([]byte{'[', 'k', ':', ' ', 0xff, ']'}); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("err = %v, want ErrInvalidEncoding", err)
	}
}

func TestParse_MultiByteValues(t *testing.T) {
	r, err := Parse([]byte("@café\n[Nom: Zoë Ærø]\n\n日本語"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Tags[0] != "café" || r.Attributes[0].Value != "Zoë Ærø" || r.Content != "日本語" {
		t.Errorf("record = %+v", r)
	}
}

func TestWithPath(t *testing.T) {
	_, err := Parse([]byte("oops\n"))
	err = WithPath(err, "people/bob")
	if !strings.Contains(err.Error(), "people/bob:1") {
		t.Errorf("error = %q, want path and line", err)
	}
}
