package search

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/bookscan/core"
)

// Matcher finds literal occurrences of a term in scanned books, including
// occurrences split across a hyphenated line or page break.
//
// A Matcher holds no per-search state and is safe for concurrent use as long
// as the configured monitor is.
type Matcher struct {
	policy  JoinPolicy
	monitor SearchMonitor
	logger  *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithJoinPolicy selects how matched lines feed the next hyphen-join check.
// Default is CarryForward.
func WithJoinPolicy(policy JoinPolicy) Option {
	return func(m *Matcher) error {
		if !policy.valid() {
			return fmt.Errorf("%w: %s", ErrUnknownJoinPolicy, policy)
		}
		m.policy = policy
		return nil
	}
}

// WithMonitor attaches a monitor that observes every search.
// A nil monitor disables monitoring.
func WithMonitor(monitor SearchMonitor) Option {
	return func(m *Matcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		m.monitor = monitor
		return nil
	}
}

// NewMatcher creates a new matcher.
func NewMatcher(opts ...Option) (*Matcher, error) {
	m := &Matcher{
		policy:  CarryForward,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Policy returns the configured join policy.
func (m *Matcher) Policy() JoinPolicy {
	return m.policy
}

// Search returns every line where term begins, in book order and then line
// order.
//
// A nil books slice or a nil book fails with core.ErrInvalidArgument before
// anything is scanned. An empty term matches nothing and returns an empty
// response. Each book's content is expected to be sorted by page, then line;
// out-of-order content is not reported, it only prevents hyphen joins.
func (m *Matcher) Search(term string, books []*core.Book) (*core.SearchResponse, error) {
	if books == nil {
		return nil, fmt.Errorf("%w: books is nil", core.ErrInvalidArgument)
	}
	for i, book := range books {
		if book == nil {
			return nil, fmt.Errorf("%w: book %d is nil", core.ErrInvalidArgument, i)
		}
	}

	start := time.Now()
	response := core.NewSearchResponse(term)
	m.monitor.Start(term, len(books))

	if term == "" {
		m.logger.Debug("empty search term, skipping scan")
		m.monitor.Finish(response, time.Since(start))
		return response, nil
	}

	for _, book := range books {
		response.Results = m.scanBook(term, book, response.Results)
	}

	m.logger.Debug("search finished", "term", term, "books", len(books), "hits", len(response.Results))
	m.monitor.Finish(response, time.Since(start))
	return response, nil
}

// scanBook appends the hits found in one book to hits.
// previous is the hyphen-join candidate; it never outlives the book.
func (m *Matcher) scanBook(term string, book *core.Book, hits []core.Hit) []core.Hit {
	var previous *core.ScannedLine

	for i := range book.Content {
		current := &book.Content[i]

		if previous != nil && !core.AreAdjacent(*previous, *current) {
			m.monitor.GapDetected(book.ISBN, *previous, *current)
			previous = nil
		}

		matched := false
		if strings.Contains(current.Text, term) {
			hit := core.Hit{ISBN: book.ISBN, Page: current.Page, Line: current.Line}
			hits = append(hits, hit)
			m.monitor.DirectHit(hit)
			matched = true
		} else if previous != nil && endsWithHyphen(previous.Text) {
			if strings.Contains(joinHyphenated(previous.Text, current.Text), term) {
				hit := core.Hit{ISBN: book.ISBN, Page: previous.Page, Line: previous.Line}
				hits = append(hits, hit)
				m.monitor.JoinedHit(hit)
				matched = true
			}
		}

		if matched && m.policy == ClearOnMatch {
			previous = nil
		} else {
			previous = current
		}
	}

	m.monitor.BookScanned(book.ISBN, len(book.Content))
	return hits
}

// SearchDocument searches books given as a generically decoded document,
// e.g. the result of unmarshalling JSON or YAML into an any.
//
// term must be a string and books a list, otherwise the call fails with
// core.ErrInvalidArgument. Both checks run before the empty-term
// short-circuit. Book and line shape errors are reported by core.DecodeBooks.
func (m *Matcher) SearchDocument(term any, books any) (*core.SearchResponse, error) {
	searchTerm, ok := term.(string)
	if !ok {
		return nil, fmt.Errorf("%w: search term must be a string, got %T", core.ErrInvalidArgument, term)
	}
	if _, ok := books.([]any); !ok {
		return nil, fmt.Errorf("%w: books must be a list, got %T", core.ErrInvalidArgument, books)
	}

	if searchTerm == "" {
		return m.Search(searchTerm, []*core.Book{})
	}

	decoded, err := core.DecodeBooks(books)
	if err != nil {
		return nil, err
	}
	return m.Search(searchTerm, decoded)
}
