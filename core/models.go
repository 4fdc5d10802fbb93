package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// It is derived from content so the same ISBN always maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	return IDFromBytes([]byte(text))
}

// IDFromBytes generates a deterministic ID from raw bytes using BLAKE2b hashing.
func IDFromBytes(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ScannedLine is a single OCR'd line of a book.
// Page and Line are 1-based.
type ScannedLine struct {
	Page int    `json:"Page" yaml:"Page"`
	Line int    `json:"Line" yaml:"Line"`
	Text string `json:"Text" yaml:"Text"`
}

// Book is a scanned book. Content must be sorted by (Page, Line).
type Book struct {
	ISBN    string        `json:"ISBN" yaml:"ISBN"`
	Title   string        `json:"Title,omitempty" yaml:"Title,omitempty"`
	Content []ScannedLine `json:"Content" yaml:"Content"`
}

// Hit identifies the line where a match begins.
// For hyphen-joined matches this is the line carrying the trailing hyphen.
type Hit struct {
	ISBN string `json:"ISBN" yaml:"ISBN"`
	Page int    `json:"Page" yaml:"Page"`
	Line int    `json:"Line" yaml:"Line"`
}

// SearchResponse is the result of one search.
// Results is never nil so it serializes as an empty list.
type SearchResponse struct {
	SearchTerm string `json:"SearchTerm" yaml:"SearchTerm"`
	Results    []Hit  `json:"Results" yaml:"Results"`
}

// NewSearchResponse returns an empty response for term.
func NewSearchResponse(term string) *SearchResponse {
	return &SearchResponse{
		SearchTerm: term,
		Results:    []Hit{},
	}
}

// SourceCheckpoint records the digest of an ingested source document.
type SourceCheckpoint struct {
	Source    string
	Digest    ID
	Books     int
	UpdatedAt time.Time
}

// AreAdjacent reports whether b directly follows a in reading order:
// the next line on the same page, or the first line of the next page.
func AreAdjacent(a, b ScannedLine) bool {
	nextOnPage := a.Page == b.Page && a.Line+1 == b.Line
	firstOnNextPage := a.Page+1 == b.Page && b.Line == 1
	return nextOnPage || firstOnNextPage
}
