package schema

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The schema descriptor file is a small line-oriented format:
//
//	# orders primary key index
//	relation idx_orders_pkey
//	attribute id      len=4   byval align=int
//	attribute payload varlena byref align=int
//	attribute note    cstring byref align=char
//
// One "relation" header followed by one "attribute" line per column, in
// attribute order. '#' starts a comment.

//nolint:govet // participle grammar tags are not standard struct tags
type schemaDoc struct {
	Name string     `"relation" @Ident`
	Atts []attrDecl `@@+`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attrDecl struct {
	Name    string `"attribute" @Ident`
	Fixed   *int   `( "len" "=" @Int`
	Varlena bool   `  | @"varlena"`
	CString bool   `  | @"cstring" )`
	ByValue bool   `( @"byval" | "byref" )`
	Align   string `"align" "=" @Ident`
}

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `=`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var schemaParser = participle.MustBuild[schemaDoc](
	participle.Lexer(schemaLexer),
	participle.Elide("Whitespace", "Comment"),
)

// Parse parses a schema descriptor from source text. The returned Relation
// has already passed Validate.
func Parse(filename, src string) (*Relation, error) {
	doc, err := schemaParser.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	rel := &Relation{Name: doc.Name}
	for _, d := range doc.Atts {
		att := Attribute{Name: d.Name, ByValue: d.ByValue}
		switch {
		case d.Fixed != nil:
			att.Len = *d.Fixed
		case d.Varlena:
			att.Len = VarlenaLen
		case d.CString:
			att.Len = CStringLen
		}
		att.Align, err = ParseAlignClass(d.Align)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", d.Name, err)
		}
		rel.Atts = append(rel.Atts, att)
	}

	if err := rel.Validate(); err != nil {
		return nil, err
	}
	return rel, nil
}

// ParseFile parses a schema descriptor file.
func ParseFile(path string) (*Relation, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(path, string(src))
}
