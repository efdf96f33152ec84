// Package pipeline schedules the per-year fetch, reduction, enrichment and
// persistence stages under bounded concurrency.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/books"
	"github.com/Qluxzz/swedish-books/internal/goodreads"
	"github.com/Qluxzz/swedish-books/internal/libris"
)

// Source loads one year's flat row set.
type Source interface {
	Rows(ctx context.Context, year int) ([]libris.Binding, error)
}

// Enricher resolves rating data for one work.
type Enricher interface {
	Enrich(ctx context.Context, title, author string, isbns []string) (*goodreads.Result, error)
}

// Config bounds the three stage pools. The fetch ceiling is modest; the
// enrichment service tolerates more parallelism.
type Config struct {
	StartYear         int
	EndYear           int
	FetchConcurrency  int
	EnrichConcurrency int
	WriteConcurrency  int
}

// Stats summarizes one run. A year counts as processed once its rows are
// fetched and reduced; a later write failure shows up in WritesFailed, not
// in YearsFailed.
type Stats struct {
	YearsProcessed int
	YearsFailed    int
	WritesFailed   int
	Titles         int
	Enriched       int
}

// Pipeline wires the stages together.
type Pipeline struct {
	source   Source
	enricher Enricher
	writer   Writer
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Pipeline.
func New(source Source, enricher Enricher, writer Writer, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 10
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 20
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 20
	}
	return &Pipeline{
		source:   source,
		enricher: enricher,
		writer:   writer,
		cfg:      cfg,
		logger:   logger,
	}
}

type yearWorks struct {
	year  int
	works []books.Work
}

type enrichJob struct {
	workID string
	title  string
	author string
	isbns  []string
}

type enrichHit struct {
	workID string
	result *goodreads.Result
}

// Run processes every year in the configured range. Years flow through the
// fetch pool independently: as soon as one year's rows are reduced, its
// works go onto the enrichment pool without waiting for other years, so both
// external services stay busy. Persistence starts only after the enrichment
// result channel has fully drained; an empty job queue alone does not mean
// every result has been applied.
//
// One year's fatal error skips that year and nothing else. Enrichment
// failures are isolated per work.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	logger := p.logger.With(zap.String("run_id", uuid.NewString()))

	var processed, failed, writesFailed, titles, enriched atomic.Int64

	years := make(chan int)
	go func() {
		defer close(years)
		for year := p.cfg.StartYear; year <= p.cfg.EndYear; year++ {
			select {
			case years <- year:
			case <-ctx.Done():
				return
			}
		}
	}()

	reduced := make(chan yearWorks)
	var fetchWG sync.WaitGroup
	for i := 0; i < p.cfg.FetchConcurrency; i++ {
		fetchWG.Add(1)
		go func() {
			defer fetchWG.Done()
			for year := range years {
				p.processYear(ctx, year, logger, reduced, &processed, &failed, &titles)
			}
		}()
	}
	go func() {
		fetchWG.Wait()
		close(reduced)
	}()

	// Forward each reduced year onto the enrichment queue as it arrives,
	// keeping the full year list for the write stage.
	jobs := make(chan enrichJob)
	allYears := make(chan []yearWorks, 1)
	go func() {
		defer close(jobs)
		var all []yearWorks
		for yw := range reduced {
			all = append(all, yw)
			for i := range yw.works {
				work := &yw.works[i]
				job := enrichJob{
					workID: work.WorkID,
					title:  work.Title,
					author: work.Author,
					isbns:  work.ISBNs(),
				}
				select {
				case jobs <- job:
				case <-ctx.Done():
					allYears <- all
					return
				}
			}
		}
		allYears <- all
	}()

	hits := make(chan enrichHit)
	var enrichWG sync.WaitGroup
	for i := 0; i < p.cfg.EnrichConcurrency; i++ {
		enrichWG.Add(1)
		go func() {
			defer enrichWG.Done()
			for job := range jobs {
				p.enrichWork(ctx, job, logger, hits)
			}
		}()
	}
	go func() {
		enrichWG.Wait()
		close(hits)
	}()

	// The join before persistence: the hit channel closing guarantees every
	// in-flight result has been applied, not just that the queue is empty.
	found := make(map[string]*goodreads.Result)
	for hit := range hits {
		found[hit.workID] = hit.result
	}
	logger.Info("all enrichment requests are done")

	results := <-allYears

	writeQueue := make(chan yearWorks)
	var writeWG sync.WaitGroup
	for i := 0; i < p.cfg.WriteConcurrency; i++ {
		writeWG.Add(1)
		go func() {
			defer writeWG.Done()
			for yw := range writeQueue {
				p.writeYear(yw, found, logger, &enriched, &writesFailed)
			}
		}()
	}
	for _, yw := range results {
		writeQueue <- yw
	}
	close(writeQueue)
	writeWG.Wait()

	stats := Stats{
		YearsProcessed: int(processed.Load()),
		YearsFailed:    int(failed.Load()),
		WritesFailed:   int(writesFailed.Load()),
		Titles:         int(titles.Load()),
		Enriched:       int(enriched.Load()),
	}
	logger.Info("run complete",
		zap.Int("years_processed", stats.YearsProcessed),
		zap.Int("years_failed", stats.YearsFailed),
		zap.Int("writes_failed", stats.WritesFailed),
		zap.Int("titles", stats.Titles),
		zap.Int("enriched", stats.Enriched),
	)
	return stats, ctx.Err()
}

func (p *Pipeline) processYear(
	ctx context.Context,
	year int,
	logger *zap.Logger,
	reduced chan<- yearWorks,
	processed, failed, titles *atomic.Int64,
) {
	rows, err := p.source.Rows(ctx, year)
	if err != nil {
		yearsFailed.Inc()
		failed.Add(1)
		logger.Error("failed to get releases for year", zap.Int("year", year), zap.Error(err))
		return
	}

	works, err := books.Reduce(rows, logger)
	if err != nil {
		// Structural identifier failures poison the whole year.
		yearsFailed.Inc()
		failed.Add(1)
		logger.Error("failed to reduce releases for year", zap.Int("year", year), zap.Error(err))
		return
	}

	yearsProcessed.Inc()
	titlesReduced.Add(float64(len(works)))
	processed.Add(1)
	titles.Add(int64(len(works)))
	logger.Info("finished loading data", zap.Int("year", year), zap.Int("titles", len(works)))

	select {
	case reduced <- yearWorks{year: year, works: works}:
	case <-ctx.Done():
	}
}

func (p *Pipeline) enrichWork(ctx context.Context, job enrichJob, logger *zap.Logger, hits chan<- enrichHit) {
	result, err := p.enricher.Enrich(ctx, job.title, job.author, job.isbns)
	switch {
	case errors.Is(err, goodreads.ErrRateLimited):
		enrichmentRateLimited.Inc()
		logger.Warn("enrichment rate limited",
			zap.String("title", job.title),
			zap.String("author", job.author),
		)
	case err != nil:
		// Best effort: one work's failure must not abort the batch.
		logger.Error("something went wrong when getting info for book",
			zap.String("title", job.title),
			zap.String("author", job.author),
			zap.Strings("isbns", job.isbns),
			zap.Error(err),
		)
	case result != nil:
		enrichmentHits.Inc()
		select {
		case hits <- enrichHit{workID: job.workID, result: result}:
		case <-ctx.Done():
		}
	}
}

func (p *Pipeline) writeYear(
	yw yearWorks,
	found map[string]*goodreads.Result,
	logger *zap.Logger,
	enriched, writesFailed *atomic.Int64,
) {
	withData := 0
	for i := range yw.works {
		if result, ok := found[yw.works[i].WorkID]; ok {
			yw.works[i].Goodreads = result
			withData++
		}
	}
	enriched.Add(int64(withData))

	logger.Info("year summary",
		zap.Int("year", yw.year),
		zap.Int("titles", len(yw.works)),
		zap.Int("found_on_goodreads", withData),
	)

	if err := p.writer.WriteYear(yw.year, yw.works); err != nil {
		yearWritesFailed.Inc()
		writesFailed.Add(1)
		logger.Error("failed to write year", zap.Int("year", yw.year), zap.Error(err))
	}
}
