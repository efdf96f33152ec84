// Package importer converts the harvested per-year JSON files into a
// distributable SQLite database.
package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Qluxzz/swedish-books/internal/books"
	"github.com/Qluxzz/swedish-books/internal/textutil"
)

const schema = `
CREATE TABLE authors (
  id INTEGER PRIMARY KEY,
  libris_id TEXT UNIQUE NOT NULL,
  name TEXT GENERATED ALWAYS AS (given_name || ' ' || family_name) STORED,
  given_name TEXT NOT NULL,
  family_name TEXT NOT NULL,
  slug TEXT NOT NULL,
  life_span TEXT
);

CREATE TABLE books (
  id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
  year INTEGER NOT NULL,
  isbn TEXT NULL,
  pages INTEGER NOT NULL,
  instances INTEGER NOT NULL DEFAULT 1,
  UNIQUE (slug, author_id)
);

CREATE TABLE book_covers (
  id INTEGER PRIMARY KEY,
  book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE UNIQUE,
  host TEXT NOT NULL,
  image_id TEXT NOT NULL
);

CREATE TABLE goodreads (
  id INTEGER PRIMARY KEY,
  book_id INTEGER REFERENCES books(id) ON DELETE CASCADE UNIQUE,
  avg_rating REAL NOT NULL,
  ratings INTEGER NOT NULL,
  book_url TEXT NOT NULL
);
`

// We filter out all children's books during the harvest, but books by
// well-known children's authors are not always tagged as such.
var ignoredAuthors = map[string]struct{}{
	"Astrid Lindgren":   {},
	"Gunilla Bergström": {},
	"Åke Holmberg":      {},
}

var (
	yearPattern  = regexp.MustCompile(`\d{4}`)
	pagesPattern = regexp.MustCompile(`((\d{2,4})|(\d|)\]? (s\.|sidor))`)
)

// minPageCount drops pamphlets and very short works.
const minPageCount = 50

// noCoverMarker appears in Goodreads image URLs that are placeholder art.
const noCoverMarker = "nophoto/book/111x148"

// Stats summarizes one import.
type Stats struct {
	Books          int
	Skipped        int
	RemovedAuthors int
}

// Run builds the database at dbPath from the per-year JSON files in jsonDir.
// An existing database file is replaced. After loading, the top decile of
// authors by Goodreads ratings is removed: the site is about finding books
// that are not already famous.
func Run(ctx context.Context, jsonDir, dbPath string, logger *zap.Logger) (Stats, error) {
	files, err := filepath.Glob(filepath.Join(jsonDir, "*.json"))
	if err != nil {
		return Stats{}, fmt.Errorf("list json files: %w", err)
	}
	if len(files) == 0 {
		return Stats{}, fmt.Errorf("no json files found in %s, run harvest first", jsonDir)
	}

	if err := os.Remove(dbPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Stats{}, fmt.Errorf("remove existing database: %w", err)
	}

	// Foreign keys are off by default; the schema relies on cascading
	// deletes when famous authors are removed.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return Stats{}, fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only close on exit

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return Stats{}, fmt.Errorf("create tables: %w", err)
	}

	stats, err := loadFiles(ctx, db, files, logger)
	if err != nil {
		return stats, err
	}

	removed, err := removeMostRatedAuthors(ctx, db)
	if err != nil {
		return stats, err
	}
	stats.RemovedAuthors = removed
	logger.Info("removed most rated authors", zap.Int("count", removed))

	if _, err := db.ExecContext(ctx, "VACUUM;"); err != nil {
		return stats, fmt.Errorf("vacuum: %w", err)
	}
	return stats, nil
}

func loadFiles(ctx context.Context, db *sql.DB, files []string, logger *zap.Logger) (Stats, error) {
	var stats Stats

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, file := range files {
		year, err := yearFromFilename(file)
		if err != nil {
			return stats, err
		}

		payload, err := os.ReadFile(file)
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", file, err)
		}
		var works []books.Work
		if err := json.Unmarshal(payload, &works); err != nil {
			return stats, fmt.Errorf("decode %s: %w", file, err)
		}

		for i := range works {
			imported, err := importWork(ctx, tx, &works[i], year, logger)
			if err != nil {
				return stats, err
			}
			if imported {
				stats.Books++
			} else {
				stats.Skipped++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import transaction: %w", err)
	}
	return stats, nil
}

func importWork(ctx context.Context, tx *sql.Tx, work *books.Work, year int, logger *zap.Logger) (bool, error) {
	alive, ok := authorLifeSpanStatus(work.LifeSpan, time.Now().Year())
	if !ok || alive {
		return false, nil
	}
	if _, ignored := ignoredAuthors[work.Author]; ignored {
		return false, nil
	}

	pageCount := pageCountOf(work, logger)
	if pageCount < minPageCount {
		return false, nil
	}

	// The first instance in the list is the main instance; only about a
	// quarter of the books carry an ISBN at all.
	var isbn sql.NullString
	if isbns := work.ISBNs(); len(isbns) > 0 {
		isbn = sql.NullString{String: isbns[0], Valid: true}
	}

	authorSlug := textutil.Slug(work.Author)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO authors (libris_id, given_name, family_name, life_span, slug) VALUES (?, ?, ?, ?, ?)`,
		work.AuthorID, work.GivenName, work.FamilyName, nullable(work.LifeSpan), authorSlug,
	); err != nil {
		return false, fmt.Errorf("insert author %s: %w", work.Author, err)
	}
	var authorID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM authors WHERE libris_id = ?`, work.AuthorID,
	).Scan(&authorID); err != nil {
		return false, fmt.Errorf("get author id for %s: %w", work.Author, err)
	}

	// The combined slug is the stable public id: row ids are just insertion
	// order and would shift between generations of the database.
	bookSlug := textutil.TruncateSlug(textutil.Slug(work.Title), 150) +
		"_" + textutil.TruncateSlug(authorSlug, 50)

	var bookID int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO books(title, author_id, year, isbn, pages, slug)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(author_id, slug)
		 DO UPDATE SET id=id, instances=instances+1, year=MIN(excluded.year, books.year)
		 RETURNING id`,
		work.Title, authorID, year, isbn, pageCount, bookSlug,
	).Scan(&bookID); err != nil {
		return false, fmt.Errorf("insert book %s: %w", work.Title, err)
	}

	if err := insertCover(ctx, tx, bookID, work, logger); err != nil {
		return false, err
	}

	if work.Goodreads != nil {
		avgRating, err := strconv.ParseFloat(work.Goodreads.AvgRating, 64)
		if err != nil {
			avgRating = 0
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO goodreads(book_id, avg_rating, ratings, book_url) VALUES (?, ?, ?, ?)`,
			bookID, avgRating, work.Goodreads.RatingsCount, work.Goodreads.BookURL,
		); err != nil {
			return false, fmt.Errorf("insert goodreads data for %s: %w", work.Title, err)
		}
		if imageID := goodreadsImageID(work.Goodreads.ImageURL); imageID != "" {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO book_covers (book_id, host, image_id) VALUES (?, ?, ?)`,
				bookID, "goodreads", imageID,
			); err != nil {
				return false, fmt.Errorf("insert goodreads cover for %s: %w", work.Title, err)
			}
		}
	}

	return true, nil
}

// insertCover stores at most one catalogue cover reference per book, taken
// from the first instance whose image host we can resolve to an id.
func insertCover(ctx context.Context, tx *sql.Tx, bookID int64, work *books.Work, logger *zap.Logger) error {
	for _, inst := range work.Instances {
		host, imageID, usable := coverReference(inst, logger)
		if !usable {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO book_covers (book_id, host, image_id) VALUES (?, ?, ?)`,
			bookID, host, imageID,
		); err != nil {
			return fmt.Errorf("insert cover for %s: %w", work.Title, err)
		}
		return nil
	}
	return nil
}

// coverReference maps an instance's image host to a fetchable image id.
// tomasgift and kb key images by bib record, bokrondellen and librisse by
// ISBN; the remaining hosts have no resolvable ids in the data.
func coverReference(inst books.Instance, logger *zap.Logger) (host, imageID string, usable bool) {
	if inst.ImageHost == "" {
		return "", "", false
	}
	host = inst.ImageHost[strings.LastIndex(inst.ImageHost, "/")+1:]

	switch host {
	case "tomasgift", "kb":
		if inst.Bib == "" {
			return "", "", false
		}
		bib := inst.Bib[strings.LastIndex(inst.Bib, "/")+1:]
		bib, _, _ = strings.Cut(bib, "#")
		return host, bib, bib != ""
	case "bokrondellen", "librisse":
		if inst.ISBN == "" {
			return "", "", false
		}
		return host, inst.ISBN, true
	case "digi", "author", "nielsen", "sesam", "libris":
		return "", "", false
	default:
		logger.Warn("unknown image host", zap.String("host", host), zap.String("instance", inst.ID))
		return "", "", false
	}
}

// authorLifeSpanStatus parses a life span like "1854-1921" or "1954-".
// A single year is assumed to be the birth year; an author with no recorded
// death within 100 years of birth is counted as possibly alive. This is a
// coarse heuristic and consumers should not treat it as authoritative.
func authorLifeSpanStatus(lifeSpan string, currentYear int) (alive, ok bool) {
	years := yearPattern.FindAllString(lifeSpan, -1)
	switch len(years) {
	case 1:
		birth, _ := strconv.Atoi(years[0])
		return birth+100 > currentYear, true
	case 2:
		return false, true
	default:
		return false, false
	}
}

func pageCountOf(work *books.Work, logger *zap.Logger) int {
	for _, inst := range work.Instances {
		if inst.Pages == "" {
			continue
		}
		if count := parsePageCount(inst.Pages); count > 0 {
			return count
		}
		if !strings.Contains(inst.Pages, "vol") {
			logger.Debug("instance had an unparsable page count",
				zap.String("instance", inst.ID),
				zap.String("pages", inst.Pages),
			)
		}
	}
	if work.Goodreads != nil {
		return work.Goodreads.NumPages
	}
	return 0
}

func parsePageCount(pages string) int {
	match := pagesPattern.FindStringSubmatch(pages)
	if match == nil {
		return 0
	}
	count, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return count
}

// goodreadsImageID reduces a cover URL to the id segment stored in the
// database, skipping the placeholder "no photo" art.
func goodreadsImageID(imageURL string) string {
	if imageURL == "" || strings.Contains(imageURL, noCoverMarker) {
		return ""
	}
	parts := strings.Split(imageURL, "/")
	if len(parts) < 2 {
		return ""
	}
	id := strings.Join(parts[len(parts)-2:], "/")
	id, _, _ = strings.Cut(id, ".")
	return id
}

// removeMostRatedAuthors deletes the authors whose books gathered the top
// decile of Goodreads ratings. Authors that do not exist on Goodreads at all
// count as lesser known and stay.
func removeMostRatedAuthors(ctx context.Context, db *sql.DB) (int, error) {
	result, err := db.ExecContext(ctx, `
WITH ranked AS (
  SELECT
    author_id,
    pct
  FROM (
    SELECT
      author_id,
      PERCENT_RANK() OVER (ORDER BY SUM(ratings) ASC) AS pct
    FROM goodreads g
    INNER JOIN books b
      ON b.id = g.book_id
    WHERE ratings > 0
    GROUP BY author_id
  ) WHERE pct >= 0.9
)
DELETE FROM authors
WHERE id IN (SELECT author_id FROM ranked)
`)
	if err != nil {
		return 0, fmt.Errorf("remove most rated authors: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed authors: %w", err)
	}
	return int(removed), nil
}

func yearFromFilename(file string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(file), ".json")
	year, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q to a year: %w", base, err)
	}
	return year, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
