package search

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/bookscan/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twentyLeaguesISBN = "9780000528531"

// twentyLeagues returns the three-line excerpt from page 31 of
// Twenty Thousand Leagues Under the Sea.
func twentyLeagues() []*core.Book {
	return []*core.Book{
		{
			Title: "Twenty Thousand Leagues Under the Sea",
			ISBN:  twentyLeaguesISBN,
			Content: []core.ScannedLine{
				{Page: 31, Line: 8, Text: "now simply went on by her own momentum.  The dark-"},
				{Page: 31, Line: 9, Text: "ness was then profound; and however good the Canadian's"},
				{Page: 31, Line: 10, Text: "eyes were, I asked myself how he had managed to see, and"},
			},
		},
	}
}

func newTestMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	m, err := NewMatcher(opts...)
	require.NoError(t, err)
	return m
}

func TestNewMatcher(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m, err := NewMatcher()
		require.NoError(t, err)
		assert.Equal(t, CarryForward, m.Policy())
	})

	t.Run("with custom logger", func(t *testing.T) {
		m, err := NewMatcher(WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, m)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		m, err := NewMatcher(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, m.logger)
	})

	t.Run("with nil monitor falls back to noop", func(t *testing.T) {
		m, err := NewMatcher(WithMonitor(nil))
		require.NoError(t, err)
		assert.NotNil(t, m.monitor)
	})

	t.Run("with clear-on-match policy", func(t *testing.T) {
		m, err := NewMatcher(WithJoinPolicy(ClearOnMatch))
		require.NoError(t, err)
		assert.Equal(t, ClearOnMatch, m.Policy())
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := NewMatcher(WithJoinPolicy(JoinPolicy(42)))
		assert.ErrorIs(t, err, ErrUnknownJoinPolicy)
	})
}

func TestSearch_TwentyLeagues(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("the", func(t *testing.T) {
		got, err := m.Search("the", twentyLeagues())
		require.NoError(t, err)

		want := &core.SearchResponse{
			SearchTerm: "the",
			Results: []core.Hit{
				{ISBN: twentyLeaguesISBN, Page: 31, Line: 9},
			},
		}
		assert.Equal(t, want, got)
	})

	tests := []struct {
		term string
		want []core.Hit
	}{
		{"darkness", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}},
		{"dark-", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}},
		{"dark-ness", []core.Hit{}},
		{"momentum", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}},
		{"profound", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 9}}},
		{"banana", []core.Hit{}},
		{"Canadian", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 9}}},
		{"canadian", []core.Hit{}},
		{"The dark", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}},
		{"darkness was then", []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := m.Search(tt.term, twentyLeagues())
			require.NoError(t, err)
			assert.Equal(t, tt.term, got.SearchTerm)
			assert.Equal(t, tt.want, got.Results)
		})
	}
}

func TestSearch_EmptyTerm(t *testing.T) {
	m := newTestMatcher(t)

	got, err := m.Search("", twentyLeagues())
	require.NoError(t, err)
	assert.Equal(t, "", got.SearchTerm)
	assert.NotNil(t, got.Results)
	assert.Empty(t, got.Results)
}

func TestSearch_EmptyInputs(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("no books", func(t *testing.T) {
		got, err := m.Search("the", []*core.Book{})
		require.NoError(t, err)
		assert.Equal(t, core.NewSearchResponse("the"), got)
	})

	t.Run("book without content", func(t *testing.T) {
		got, err := m.Search("the", []*core.Book{{ISBN: "X", Content: []core.ScannedLine{}}})
		require.NoError(t, err)
		assert.Equal(t, core.NewSearchResponse("the"), got)
	})

	t.Run("book with nil content", func(t *testing.T) {
		got, err := m.Search("the", []*core.Book{{ISBN: "X"}})
		require.NoError(t, err)
		assert.Empty(t, got.Results)
	})
}

func TestSearch_InvalidArguments(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("nil books", func(t *testing.T) {
		got, err := m.Search("the", nil)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
		assert.Nil(t, got)
	})

	t.Run("nil books with empty term", func(t *testing.T) {
		_, err := m.Search("", nil)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("nil book", func(t *testing.T) {
		books := append(twentyLeagues(), nil)
		got, err := m.Search("the", books)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
		assert.Nil(t, got)
	})
}

func TestSearch_Idempotent(t *testing.T) {
	m := newTestMatcher(t)
	books := twentyLeagues()

	first, err := m.Search("darkness", books)
	require.NoError(t, err)
	second, err := m.Search("darkness", books)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, twentyLeagues(), books, "search must not modify its input")
}

func TestSearch_Gaps(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name    string
		content []core.ScannedLine
		want    []core.Hit
	}{
		{
			name: "skipped line is not joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark-"},
				{Page: 1, Line: 3, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "first line of next page is joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 40, Text: "the dark-"},
				{Page: 2, Line: 1, Text: "ness"},
			},
			want: []core.Hit{{ISBN: "X", Page: 1, Line: 40}},
		},
		{
			name: "second line of next page is not joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 40, Text: "the dark-"},
				{Page: 2, Line: 2, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "skipped page is not joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 40, Text: "the dark-"},
				{Page: 3, Line: 1, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "out of order lines are not joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 2, Text: "the dark-"},
				{Page: 1, Line: 1, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "gap resets before next adjacent pair",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark-"},
				{Page: 1, Line: 5, Text: "light and dark-"},
				{Page: 1, Line: 6, Text: "ness"},
			},
			want: []core.Hit{{ISBN: "X", Page: 1, Line: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Search("darkness", []*core.Book{{ISBN: "X", Content: tt.content}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Results)
		})
	}
}

func TestSearch_HyphenHandling(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name    string
		content []core.ScannedLine
		want    []core.Hit
	}{
		{
			name: "trailing whitespace after hyphen prevents join",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark- "},
				{Page: 1, Line: 2, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "no separator is inserted",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark-"},
				{Page: 1, Line: 2, Text: " ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "line without hyphen is not joined",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark"},
				{Page: 1, Line: 2, Text: "ness"},
			},
			want: []core.Hit{},
		},
		{
			name: "only one hyphen is dropped",
			content: []core.ScannedLine{
				{Page: 1, Line: 1, Text: "the dark--"},
				{Page: 1, Line: 2, Text: "ness"},
			},
			want: []core.Hit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Search("darkness", []*core.Book{{ISBN: "X", Content: tt.content}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Results)
		})
	}
}

func TestSearch_StateDoesNotCrossBooks(t *testing.T) {
	m := newTestMatcher(t)
	books := []*core.Book{
		{ISBN: "A", Content: []core.ScannedLine{{Page: 1, Line: 1, Text: "the dark-"}}},
		{ISBN: "B", Content: []core.ScannedLine{{Page: 1, Line: 2, Text: "ness"}}},
	}

	got, err := m.Search("darkness", books)
	require.NoError(t, err)
	assert.Empty(t, got.Results)
}

func TestSearch_ResultOrder(t *testing.T) {
	m := newTestMatcher(t)
	books := []*core.Book{
		{ISBN: "B", Content: []core.ScannedLine{
			{Page: 2, Line: 1, Text: "a sea"},
			{Page: 2, Line: 2, Text: "no water"},
			{Page: 2, Line: 3, Text: "the sea"},
		}},
		{ISBN: "A", Content: []core.ScannedLine{
			{Page: 1, Line: 1, Text: "open sea"},
		}},
	}

	got, err := m.Search("sea", books)
	require.NoError(t, err)
	assert.Equal(t, []core.Hit{
		{ISBN: "B", Page: 2, Line: 1},
		{ISBN: "B", Page: 2, Line: 3},
		{ISBN: "A", Page: 1, Line: 1},
	}, got.Results)
}

func TestSearch_JoinPolicies(t *testing.T) {
	// A line that matches directly and also ends in a hyphen whose join
	// with the next line matches again.
	directThenJoin := []*core.Book{{ISBN: "X", Content: []core.ScannedLine{
		{Page: 1, Line: 1, Text: "darkness fell on the dark-"},
		{Page: 1, Line: 2, Text: "ness of the sea"},
	}}}

	// Two consecutive hyphenated lines, each completing "darkness" with its
	// successor.
	chainedJoins := []*core.Book{{ISBN: "X", Content: []core.ScannedLine{
		{Page: 1, Line: 1, Text: "the dark-"},
		{Page: 1, Line: 2, Text: "ness and dark-"},
		{Page: 1, Line: 3, Text: "ness again"},
	}}}

	tests := []struct {
		name   string
		policy JoinPolicy
		books  []*core.Book
		want   []core.Hit
	}{
		{
			name:   "carry forward reports the direct line again when its join matches",
			policy: CarryForward,
			books:  directThenJoin,
			want:   []core.Hit{{ISBN: "X", Page: 1, Line: 1}, {ISBN: "X", Page: 1, Line: 1}},
		},
		{
			name:   "clear on match reports the direct line once",
			policy: ClearOnMatch,
			books:  directThenJoin,
			want:   []core.Hit{{ISBN: "X", Page: 1, Line: 1}},
		},
		{
			name:   "carry forward finds both chained joins",
			policy: CarryForward,
			books:  chainedJoins,
			want:   []core.Hit{{ISBN: "X", Page: 1, Line: 1}, {ISBN: "X", Page: 1, Line: 2}},
		},
		{
			name:   "clear on match drops the second chained join",
			policy: ClearOnMatch,
			books:  chainedJoins,
			want:   []core.Hit{{ISBN: "X", Page: 1, Line: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMatcher(t, WithJoinPolicy(tt.policy))
			got, err := m.Search("darkness", tt.books)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Results)
		})
	}

	t.Run("policies agree on the fixture", func(t *testing.T) {
		for _, term := range []string{"the", "darkness", "dark-", "momentum", "profound", "banana"} {
			carry, err := newTestMatcher(t).Search(term, twentyLeagues())
			require.NoError(t, err)
			cleared, err := newTestMatcher(t, WithJoinPolicy(ClearOnMatch)).Search(term, twentyLeagues())
			require.NoError(t, err)
			assert.Equal(t, cleared, carry, "term %q", term)
		}
	})
}

// recordingMonitor records monitor callbacks for assertions.
type recordingMonitor struct {
	started  []string
	direct   []core.Hit
	joined   []core.Hit
	gaps     int
	scanned  map[string]int
	finished *core.SearchResponse
}

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{scanned: make(map[string]int)}
}

func (r *recordingMonitor) Start(term string, _ int) { r.started = append(r.started, term) }
func (r *recordingMonitor) GapDetected(_ string, _, _ core.ScannedLine) {
	r.gaps++
}
func (r *recordingMonitor) DirectHit(hit core.Hit)             { r.direct = append(r.direct, hit) }
func (r *recordingMonitor) JoinedHit(hit core.Hit)             { r.joined = append(r.joined, hit) }
func (r *recordingMonitor) BookScanned(isbn string, lines int) { r.scanned[isbn] = lines }
func (r *recordingMonitor) Finish(response *core.SearchResponse, _ time.Duration) {
	r.finished = response
}

func TestSearch_Monitor(t *testing.T) {
	monitor := newRecordingMonitor()
	m := newTestMatcher(t, WithMonitor(monitor))

	books := append(twentyLeagues(), &core.Book{ISBN: "X", Content: []core.ScannedLine{
		{Page: 1, Line: 1, Text: "dark-"},
		{Page: 1, Line: 3, Text: "ness"},
	}})

	got, err := m.Search("darkness", books)
	require.NoError(t, err)

	assert.Equal(t, []string{"darkness"}, monitor.started)
	assert.Empty(t, monitor.direct)
	assert.Equal(t, []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}, monitor.joined)
	assert.Equal(t, 1, monitor.gaps)
	assert.Equal(t, map[string]int{twentyLeaguesISBN: 3, "X": 2}, monitor.scanned)
	assert.Same(t, got, monitor.finished)
}

func TestSearchDocument(t *testing.T) {
	m := newTestMatcher(t)

	var doc any
	require.NoError(t, json.Unmarshal([]byte(`[{
		"Title": "Twenty Thousand Leagues Under the Sea",
		"ISBN": "9780000528531",
		"Content": [
			{"Page": 31, "Line": 8, "Text": "now simply went on by her own momentum.  The dark-"},
			{"Page": 31, "Line": 9, "Text": "ness was then profound; and however good the Canadian's"},
			{"Page": 31, "Line": 10, "Text": "eyes were, I asked myself how he had managed to see, and"}
		]
	}]`), &doc))

	t.Run("matches decoded documents", func(t *testing.T) {
		got, err := m.SearchDocument("darkness", doc)
		require.NoError(t, err)
		assert.Equal(t, []core.Hit{{ISBN: twentyLeaguesISBN, Page: 31, Line: 8}}, got.Results)
	})

	t.Run("agrees with typed search", func(t *testing.T) {
		for _, term := range []string{"the", "darkness", "dark-ness", "Canadian"} {
			fromDoc, err := m.SearchDocument(term, doc)
			require.NoError(t, err)
			typed, err := m.Search(term, twentyLeagues())
			require.NoError(t, err)
			assert.Equal(t, typed, fromDoc, "term %q", term)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		got, err := m.SearchDocument("the", []any{})
		require.NoError(t, err)
		assert.Equal(t, core.NewSearchResponse("the"), got)
	})

	t.Run("empty term skips decoding", func(t *testing.T) {
		malformed := []any{map[string]any{"ISBN": "X", "Content": []any{map[string]any{"Page": 1}}}}
		got, err := m.SearchDocument("", malformed)
		require.NoError(t, err)
		assert.Empty(t, got.Results)
	})

	invalid := []struct {
		name  string
		term  any
		books any
	}{
		{"numeric term", 123, doc},
		{"null term", nil, doc},
		{"null books", "the", nil},
		{"object books", "the", map[string]any{"ISBN": "X"}},
		{"string books", "the", "books"},
		{"null books with empty term", "", nil},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.SearchDocument(tt.term, tt.books)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
			assert.Nil(t, got)
		})
	}

	t.Run("line missing text", func(t *testing.T) {
		malformed := []any{map[string]any{"ISBN": "X", "Content": []any{map[string]any{"Page": 1, "Line": 1}}}}
		got, err := m.SearchDocument("the", malformed)
		assert.ErrorIs(t, err, core.ErrMalformedRecord)
		assert.Nil(t, got)
	})
}
