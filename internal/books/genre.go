package books

import (
	"strings"

	"github.com/Qluxzz/swedish-books/internal/libris"
)

// Genre namespaces that disqualify a work outright: children's literature
// subject headings and the graphic-material thesaurus.
const (
	childrensGenrePrefix = "https://id.kb.se/term/barn"
	graphicsGenrePrefix  = "https://id.kb.se/term/gmgpc"
)

// blockedGenres is the fixed denylist of genre terms whose presence on any
// row invalidates the owning work for the whole run.
var blockedGenres = map[string]struct{}{
	"https://id.kb.se/marc/Autobiography":                      {},
	"https://id.kb.se/marc/ComicOrGraphicNovel":                {},
	"https://id.kb.se/marc/ComicStrip":                         {},
	"https://id.kb.se/marc/Encyclopedia":                       {},
	"https://id.kb.se/marc/Essay":                              {},
	"https://id.kb.se/marc/NotFictionNotFurtherSpecified":      {},
	"https://id.kb.se/marc/Poetry":                             {},
	"https://id.kb.se/marc/Review":                             {},
	"https://id.kb.se/marc/Thesis":                             {},
	"https://id.kb.se/marc/Yearbook":                           {},
	"https://id.kb.se/term/gmgpc/swe/Tecknade%20serier":        {},
	"https://id.kb.se/term/saogf/Allegorier":                   {},
	"https://id.kb.se/term/saogf/Bildverk":                     {},
	"https://id.kb.se/term/saogf/Biografier":                   {},
	"https://id.kb.se/term/saogf/L%C3%A4romedel":               {},
	"https://id.kb.se/term/saogf/Ljudb%C3%B6cker":              {},
	"https://id.kb.se/term/saogf/Ljudbearbetningar":            {},
	"https://id.kb.se/term/saogf/Ordspr%C3%A5k%20och%20tales%C3%A4tt": {},
	"https://id.kb.se/term/saogf/Poesi":                        {},
	"https://id.kb.se/term/saogf/Sj%C3%A4lvbiografier":         {},
	"https://id.kb.se/term/saogf/Tecknade%20serier":            {},
}

// SkipGenreRow reports whether the row carries no usable genre signal.
// A blank-node genre says nothing either way: the same work may show up
// later under a resolvable genre, and that row is still usable.
func SkipGenreRow(genre libris.Value) bool {
	return genre.IsBnode()
}

// BlockingGenre reports whether the genre term invalidates the owning work.
func BlockingGenre(genre libris.Value) bool {
	if strings.HasPrefix(genre.Value, childrensGenrePrefix) ||
		strings.HasPrefix(genre.Value, graphicsGenrePrefix) {
		return true
	}
	_, blocked := blockedGenres[genre.Value]
	return blocked
}
