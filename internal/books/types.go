// Package books holds the canonical work model and the reduction,
// classification and validation logic that turns flat Libris rows into
// deduplicated releases.
package books

import "github.com/Qluxzz/swedish-books/internal/goodreads"

// Instance is one physical edition of a work.
type Instance struct {
	ID        string `json:"id"`
	Bib       string `json:"bib,omitempty"`
	ImageHost string `json:"imageHost,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	Pages     string `json:"pages,omitempty"`
}

// Work is a canonical release: one literary title collapsed across all the
// rows that reference it. Genres and instances keep insertion order so the
// serialized arrays are stable between runs.
type Work struct {
	WorkID     string     `json:"workId"`
	Title      string     `json:"title"`
	AuthorID   string     `json:"authorId"`
	Author     string     `json:"author"`
	GivenName  string     `json:"givenName"`
	FamilyName string     `json:"familyName"`
	LifeSpan   string     `json:"lifeSpan,omitempty"`
	Genres     []string   `json:"genres"`
	Instances  []Instance `json:"instances"`

	Goodreads *goodreads.Result `json:"goodreads,omitempty"`

	genreSeen    map[string]struct{}
	instanceSeen map[string]struct{}
}

// AddGenre appends the genre unless it is already present.
func (w *Work) AddGenre(genre string) {
	if w.genreSeen == nil {
		w.genreSeen = make(map[string]struct{})
	}
	if _, ok := w.genreSeen[genre]; ok {
		return
	}
	w.genreSeen[genre] = struct{}{}
	w.Genres = append(w.Genres, genre)
}

// AddInstance appends the instance unless one with the same id is already
// present. Re-adding an id is a no-op; repeated rows for the same edition
// must not accumulate duplicates.
func (w *Work) AddInstance(inst Instance) {
	if w.instanceSeen == nil {
		w.instanceSeen = make(map[string]struct{})
	}
	if _, ok := w.instanceSeen[inst.ID]; ok {
		return
	}
	w.instanceSeen[inst.ID] = struct{}{}
	w.Instances = append(w.Instances, inst)
}

// ISBNs returns the validated ISBNs of the work's instances in instance
// insertion order. Only meaningful after the reduction's validation pass.
func (w *Work) ISBNs() []string {
	var isbns []string
	for _, inst := range w.Instances {
		if inst.ISBN != "" {
			isbns = append(isbns, inst.ISBN)
		}
	}
	return isbns
}
