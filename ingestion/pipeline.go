package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bookscan/core"
	"github.com/poiesic/bookscan/storage"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 50 * time.Millisecond
)

// Pipeline loads book documents and stores their books in a library.
// Files are read and decoded concurrently; books are written sequentially
// in the order the files were given.
type Pipeline struct {
	bookRepository       storage.BookRepository
	checkpointRepository storage.CheckpointRepository
	loadPool             *ants.Pool
	sortContent          bool
	force                bool
	maxAttempts          int
	baseDelay            time.Duration
	progressWriter       io.Writer
	progressInterval     int
	logger               *slog.Logger
}

// Report summarizes one ingestion call.
type Report struct {
	Files   int // source files whose books were stored
	Skipped int // source files skipped because their checkpoint matched
	Books   int // books stored
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent file loading.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.loadPool != nil {
			p.loadPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.loadPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSortContent controls whether book content is sorted by (Page, Line)
// before validation. Default is true.
func WithSortContent(sortContent bool) Option {
	return func(p *Pipeline) error {
		p.sortContent = sortContent
		return nil
	}
}

// WithRetry sets how storage writes are retried on transaction conflicts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithProgress reports loading progress to w every interval files.
// A nil writer disables progress output.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progressWriter = w
		p.progressInterval = interval
		return nil
	}
}

// WithForce ingests files even when their checkpoint says they are unchanged.
func WithForce(force bool) Option {
	return func(p *Pipeline) error {
		p.force = force
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	bookRepository storage.BookRepository,
	checkpointRepository storage.CheckpointRepository,
	opts ...Option,
) (*Pipeline, error) {
	if bookRepository == nil {
		return nil, ErrBookRepositoryRequired
	}
	if checkpointRepository == nil {
		return nil, ErrCheckpointRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	loadPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		bookRepository:       bookRepository,
		checkpointRepository: checkpointRepository,
		loadPool:             loadPool,
		sortContent:          true,
		maxAttempts:          defaultMaxAttempts,
		baseDelay:            defaultBaseDelay,
		logger:               slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// loadedFile is the outcome of loading one source file.
type loadedFile struct {
	source  string
	digest  core.ID
	books   []*core.Book
	skipped bool
	err     error
}

// IngestFiles loads the given JSON or YAML documents and stores their books.
// Nothing is stored if any file fails to load.
func (p *Pipeline) IngestFiles(ctx context.Context, paths ...string) (*Report, error) {
	results := make([]loadedFile, len(paths))

	var tracker *ProgressTracker
	if p.progressWriter != nil {
		tracker = NewProgressTracker(p.progressWriter, len(paths), p.progressInterval)
		tracker.Start()
	}

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		err := p.loadPool.Submit(func() {
			defer wg.Done()
			results[i] = p.loadFile(ctx, path)
			if tracker != nil {
				tracker.FileDone(len(results[i].books))
			}
		})
		if err != nil {
			wg.Done()
			results[i] = loadedFile{source: path, err: err}
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	for _, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("loading %s: %w", result.source, result.err)
		}
	}

	report := &Report{}
	for _, result := range results {
		if result.skipped {
			p.logger.Debug("source unchanged, skipping", "source", result.source)
			report.Skipped++
			continue
		}

		if err := p.store(ctx, result.books); err != nil {
			return report, fmt.Errorf("storing %s: %w", result.source, err)
		}

		checkpoint := &core.SourceCheckpoint{
			Source: result.source,
			Digest: result.digest,
			Books:  len(result.books),
		}
		if err := p.checkpointRepository.SaveCheckpoint(ctx, checkpoint); err != nil {
			return report, fmt.Errorf("checkpointing %s: %w", result.source, err)
		}

		p.logger.Info("ingested source", "source", result.source, "books", len(result.books))
		report.Files++
		report.Books += len(result.books)
	}

	return report, nil
}

// IngestBooks validates and stores books directly.
// When content sorting is enabled the books are sorted on copies, leaving
// the caller's values untouched.
func (p *Pipeline) IngestBooks(ctx context.Context, books ...*core.Book) (*Report, error) {
	prepared := make([]*core.Book, 0, len(books))
	for i, book := range books {
		if book != nil && p.sortContent {
			clone := *book
			clone.Content = slices.Clone(book.Content)
			book = &clone
		}
		if err := p.prepare(book); err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		prepared = append(prepared, book)
	}

	if err := p.store(ctx, prepared); err != nil {
		return nil, err
	}
	return &Report{Books: len(prepared)}, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.loadPool != nil {
		p.loadPool.Release()
	}
}

func (p *Pipeline) loadFile(ctx context.Context, path string) loadedFile {
	source, err := filepath.Abs(path)
	if err != nil {
		return loadedFile{source: path, err: err}
	}
	result := loadedFile{source: source}

	data, err := os.ReadFile(path)
	if err != nil {
		result.err = err
		return result
	}
	result.digest = core.IDFromBytes(data)

	if !p.force {
		checkpoint, err := p.checkpointRepository.LoadCheckpoint(ctx, source)
		if err != nil {
			result.err = err
			return result
		}
		if checkpoint != nil && checkpoint.Digest == result.digest {
			result.skipped = true
			return result
		}
	}

	books, err := p.decodeDocument(path, data)
	if err != nil {
		result.err = err
		return result
	}
	for _, book := range books {
		if err := p.prepare(book); err != nil {
			result.err = err
			return result
		}
	}
	result.books = books
	return result
}

// ParseDocument parses JSON or YAML data into a generic document, choosing
// the format from the path's extension. A document holding a single object
// is returned as a one-element list.
func ParseDocument(path string, data []byte) (any, error) {
	var doc any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		var trailing any
		if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
			if err == nil {
				err = errors.New("unexpected data after document")
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if _, isObject := doc.(map[string]any); isObject {
		doc = []any{doc}
	}
	return doc, nil
}

// decodeDocument parses, schema-checks and decodes a document into books.
func (p *Pipeline) decodeDocument(path string, data []byte) ([]*core.Book, error) {
	doc, err := ParseDocument(path, data)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	return core.DecodeBooks(doc)
}

func (p *Pipeline) prepare(book *core.Book) error {
	if p.sortContent {
		core.SortContent(book)
	}
	return core.ValidateBook(book)
}

// store writes books, retrying on transaction conflicts.
func (p *Pipeline) store(ctx context.Context, books []*core.Book) error {
	if len(books) == 0 {
		return nil
	}
	return RetryWithBackoff(ctx, p.logger, func() error {
		_, err := p.bookRepository.AddBooks(ctx, books...)
		if err != nil && !errors.Is(err, badger.ErrConflict) {
			return Permanent(err)
		}
		return err
	}, p.maxAttempts, p.baseDelay)
}
