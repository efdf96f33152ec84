// Package libris fetches and models flat SPARQL search results from the
// Libris national catalogue.
package libris

// Kind tags how a SPARQL term is referenced.
type Kind string

// Term kinds as reported by the SPARQL JSON result format.
const (
	KindURI     Kind = "uri"
	KindLiteral Kind = "literal"
	KindBnode   Kind = "bnode"
)

// Value is one bound SPARQL term. A zero Value means the variable was
// unbound for that row.
type Value struct {
	Type  Kind   `json:"type"`
	Value string `json:"value"`
}

// IsURI reports whether the term carries a resolvable URI reference.
func (v Value) IsURI() bool {
	return v.Type == KindURI
}

// IsBnode reports whether the term is a blank node.
func (v Value) IsBnode() bool {
	return v.Type == KindBnode
}

// IsBound reports whether the variable was bound at all.
func (v Value) IsBound() bool {
	return v.Value != ""
}

// Binding is one flat result row. A work shows up once per genre and once
// per physical instance, so the same work reference repeats across rows.
type Binding struct {
	Work       Value `json:"work"`
	Instance   Value `json:"instance"`
	Bib        Value `json:"bib"`
	ImageHost  Value `json:"imageHost"`
	Title      Value `json:"title"`
	Author     Value `json:"author"`
	GivenName  Value `json:"givenName"`
	FamilyName Value `json:"familyName"`
	LifeSpan   Value `json:"lifeSpan"`
	ISNI       Value `json:"isni"`
	ISBN       Value `json:"isbn"`
	Pages      Value `json:"pages"`
	Genre      Value `json:"genre"`
}

// Response is the SPARQL JSON result envelope.
type Response struct {
	Head    Head    `json:"head"`
	Results Results `json:"results"`
}

// Head lists the variables the query projected.
type Head struct {
	Vars []string `json:"vars"`
}

// Results holds the result rows.
type Results struct {
	Bindings []Binding `json:"bindings"`
}
