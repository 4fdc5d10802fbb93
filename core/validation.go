// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"cmp"
	"fmt"
	"slices"
)

// ValidateBook validates a Book according to domain rules.
//
// Validation rules:
//   - ISBN must not be empty
//   - every line must pass ValidateScannedLine
//   - content must be strictly increasing by (Page, Line)
//
// NOT validated:
//   - Title (optional)
//   - Text (an empty line is a legitimate scan result)
func ValidateBook(book *Book) error {
	if book == nil {
		return fmt.Errorf("%w: book is nil", ErrInvalidBook)
	}

	if book.ISBN == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBook, ErrEmptyISBN)
	}

	for i, line := range book.Content {
		if err := ValidateScannedLine(line); err != nil {
			return fmt.Errorf("%w: isbn %s line index %d: %w", ErrInvalidBook, book.ISBN, i, err)
		}
		if i > 0 && comparePosition(book.Content[i-1], line) >= 0 {
			return fmt.Errorf("%w: isbn %s at page %d line %d: %w",
				ErrInvalidBook, book.ISBN, line.Page, line.Line, ErrUnsortedContent)
		}
	}

	return nil
}

// ValidateScannedLine checks that page and line numbers are 1-based.
func ValidateScannedLine(line ScannedLine) error {
	if line.Page < 1 || line.Line < 1 {
		return fmt.Errorf("%w: %w: page %d line %d", ErrInvalidScannedLine, ErrInvalidPosition, line.Page, line.Line)
	}
	return nil
}

// SortContent orders a book's content by page, then line.
// The sort is stable so duplicate positions keep their input order.
func SortContent(book *Book) {
	if book == nil {
		return
	}
	slices.SortStableFunc(book.Content, comparePosition)
}

// IsSorted reports whether content is ordered by page, then line.
func IsSorted(content []ScannedLine) bool {
	return slices.IsSortedFunc(content, comparePosition)
}

func comparePosition(a, b ScannedLine) int {
	if c := cmp.Compare(a.Page, b.Page); c != 0 {
		return c
	}
	return cmp.Compare(a.Line, b.Line)
}
