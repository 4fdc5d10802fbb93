package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DecodeBooks converts a generically decoded document (the result of
// unmarshalling JSON or YAML into an any) into books.
//
// Shape errors on the collection or on a book wrap ErrInvalidArgument.
// Defects in an individual scanned line wrap ErrMalformedRecord.
func DecodeBooks(doc any) ([]*Book, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: books must be a list, got %s", ErrInvalidArgument, describe(doc))
	}

	books := make([]*Book, 0, len(items))
	for i, item := range items {
		book, err := decodeBook(item)
		if err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		books = append(books, book)
	}
	return books, nil
}

func decodeBook(item any) (*Book, error) {
	fields, ok := asObject(item)
	if !ok {
		return nil, fmt.Errorf("%w: book must be an object, got %s", ErrInvalidArgument, describe(item))
	}

	isbn, ok := lookup(fields, "ISBN").(string)
	if !ok {
		return nil, fmt.Errorf("%w: ISBN must be a string", ErrInvalidArgument)
	}

	book := &Book{ISBN: isbn}
	if title, ok := lookup(fields, "Title").(string); ok {
		book.Title = title
	}

	content, ok := lookup(fields, "Content").([]any)
	if !ok {
		return nil, fmt.Errorf("%w: isbn %s: Content must be a list", ErrInvalidArgument, isbn)
	}

	book.Content = make([]ScannedLine, 0, len(content))
	for i, raw := range content {
		line, err := decodeScannedLine(raw)
		if err != nil {
			return nil, fmt.Errorf("isbn %s line index %d: %w", isbn, i, err)
		}
		book.Content = append(book.Content, line)
	}
	return book, nil
}

func decodeScannedLine(raw any) (ScannedLine, error) {
	fields, ok := asObject(raw)
	if !ok {
		return ScannedLine{}, fmt.Errorf("%w: line must be an object, got %s", ErrMalformedRecord, describe(raw))
	}

	text, ok := lookup(fields, "Text").(string)
	if !ok {
		return ScannedLine{}, fmt.Errorf("%w: Text must be a string", ErrMalformedRecord)
	}
	page, ok := asInt(lookup(fields, "Page"))
	if !ok {
		return ScannedLine{}, fmt.Errorf("%w: Page must be an integer", ErrMalformedRecord)
	}
	line, ok := asInt(lookup(fields, "Line"))
	if !ok {
		return ScannedLine{}, fmt.Errorf("%w: Line must be an integer", ErrMalformedRecord)
	}

	return ScannedLine{Page: page, Line: line, Text: text}, nil
}

// asObject accepts both JSON-style and YAML v2-style maps.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = val
		}
		return out, true
	}
	return nil, false
}

// lookup finds a field by its canonical name or its lower-case alias.
func lookup(fields map[string]any, name string) any {
	if v, ok := fields[name]; ok {
		return v
	}
	return fields[strings.ToLower(name)]
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		// NaN fails the Trunc comparison
		if n != math.Trunc(n) || n >= math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
