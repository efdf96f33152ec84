package books

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Qluxzz/swedish-books/internal/libris"
)

// IdentifierError means a URI reference could not be reduced to a stable id.
// That signals a structural change in the upstream data shape, so the
// containing year's batch must be aborted rather than silently skipped.
type IdentifierError struct {
	Ref string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("%q could not be converted to an id", e.Ref)
}

// trailingSegment strips a URI like
// https://libris.kb.se/zcmbzbh3wgxvd2lq#it down to zcmbzbh3wgxvd2lq.
func trailingSegment(uri string) string {
	segment := uri[strings.LastIndex(uri, "/")+1:]
	segment, _, _ = strings.Cut(segment, "#")
	return segment
}

// ResolveWorkID derives the stable work id for a row. URI references are
// stripped to their trailing segment; anything else keeps its raw value.
func ResolveWorkID(row libris.Binding) (string, error) {
	if !row.Work.IsURI() {
		return row.Work.Value, nil
	}
	id := trailingSegment(row.Work.Value)
	if id == "" {
		return "", &IdentifierError{Ref: row.Work.Value}
	}
	return id, nil
}

// ResolveAuthorID derives the stable author id for a row. Best case the
// author has a URI reference. Otherwise the ISNI cross-reference is used if
// present, and as a last resort the name and life span are hashed so that
// identical tuples collapse deterministically.
func ResolveAuthorID(row libris.Binding) (string, error) {
	if row.Author.IsURI() {
		id := trailingSegment(row.Author.Value)
		if id == "" {
			return "", &IdentifierError{Ref: row.Author.Value}
		}
		return id, nil
	}
	if row.ISNI.IsBound() {
		return row.ISNI.Value, nil
	}
	sum := sha1.Sum([]byte(row.GivenName.Value + row.FamilyName.Value + row.LifeSpan.Value))
	return hex.EncodeToString(sum[:]), nil
}
