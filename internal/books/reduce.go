package books

import (
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/libris"
)

// accumulator carries the fold state for one year's reduction. The invalid
// set is monotonic: once a work id lands there it never comes back, no
// matter what later rows say. The order slice preserves first-seen order so
// the output is stable between runs.
type accumulator struct {
	invalid map[string]struct{}
	valid   map[string]*Work
	order   []string
}

// Reduce folds one year's flat row set into canonical works. Rows arrive
// duplicated once per genre and once per instance of a work, so the fold
// merges genres and instances onto the first-seen work. The fold is strictly
// sequential: a work may transiently exist in the valid set before a later
// row invalidates it, and the invalid set is consulted before any further
// processing of that work id.
//
// A row whose reference shape cannot be reduced to an id aborts the whole
// batch; downstream identifiers would be wrong for every work in the year.
//
// The final pass checksums every instance ISBN; invalid ones are cleared to
// absent and logged, never silently kept.
func Reduce(rows []libris.Binding, logger *zap.Logger) ([]Work, error) {
	acc := accumulator{
		invalid: make(map[string]struct{}),
		valid:   make(map[string]*Work),
	}

	for _, row := range rows {
		if err := acc.fold(row); err != nil {
			return nil, err
		}
	}

	works := make([]Work, 0, len(acc.order))
	for _, id := range acc.order {
		work, ok := acc.valid[id]
		if !ok {
			// Invalidated after first being seen.
			continue
		}
		clearInvalidISBNs(work, logger)
		works = append(works, *work)
	}
	return works, nil
}

func (acc *accumulator) fold(row libris.Binding) error {
	if _, poisoned := acc.invalid[row.Work.Value]; poisoned {
		return nil
	}

	// A blank-node genre is no signal either way; if the work shows up
	// under a resolvable genre later, that row still counts.
	if SkipGenreRow(row.Genre) {
		return nil
	}

	if BlockingGenre(row.Genre) {
		acc.invalid[row.Work.Value] = struct{}{}
		// One row per genre means earlier rows may have added the work
		// before we learned it was unwanted.
		delete(acc.valid, row.Work.Value)
		return nil
	}

	if existing, ok := acc.valid[row.Work.Value]; ok {
		existing.AddGenre(row.Genre.Value)
		existing.AddInstance(instanceOf(row))
		return nil
	}

	authorID, err := ResolveAuthorID(row)
	if err != nil {
		return err
	}
	workID, err := ResolveWorkID(row)
	if err != nil {
		return err
	}

	work := &Work{
		WorkID:     workID,
		Title:      row.Title.Value,
		AuthorID:   authorID,
		Author:     row.GivenName.Value + " " + row.FamilyName.Value,
		GivenName:  row.GivenName.Value,
		FamilyName: row.FamilyName.Value,
		LifeSpan:   row.LifeSpan.Value,
	}
	work.AddGenre(row.Genre.Value)
	work.AddInstance(instanceOf(row))

	// Keyed by the raw work reference: that is what repeats across rows.
	acc.valid[row.Work.Value] = work
	acc.order = append(acc.order, row.Work.Value)
	return nil
}

func instanceOf(row libris.Binding) Instance {
	return Instance{
		ID:        row.Instance.Value,
		Bib:       row.Bib.Value,
		ImageHost: row.ImageHost.Value,
		ISBN:      row.ISBN.Value,
		Pages:     row.Pages.Value,
	}
}

func clearInvalidISBNs(work *Work, logger *zap.Logger) {
	for i := range work.Instances {
		inst := &work.Instances[i]
		if inst.ISBN == "" {
			continue
		}
		normalized, ok := ValidateISBN(inst.ISBN)
		if !ok {
			logger.Error("instance had an invalid ISBN",
				zap.String("instance", inst.ID),
				zap.String("title", work.Title),
				zap.String("author", work.Author),
				zap.String("isbn", inst.ISBN),
			)
			inst.ISBN = ""
			continue
		}
		inst.ISBN = normalized
	}
}
