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

import "errors"

// Argument errors
var (
	// ErrInvalidArgument indicates a search input has the wrong shape,
	// e.g. a missing book collection or a non-string search term.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedRecord indicates a scanned line record is missing a field
	// or carries a field of the wrong type.
	ErrMalformedRecord = errors.New("malformed record")
)

// Domain validation errors
var (
	// ErrInvalidBook indicates a Book failed validation.
	ErrInvalidBook = errors.New("invalid book")

	// ErrInvalidScannedLine indicates a ScannedLine failed validation.
	ErrInvalidScannedLine = errors.New("invalid scanned line")

	// ErrEmptyISBN indicates the ISBN field is empty.
	ErrEmptyISBN = errors.New("isbn cannot be empty")

	// ErrInvalidPosition indicates a page or line number below 1.
	ErrInvalidPosition = errors.New("page and line must be 1 or greater")

	// ErrUnsortedContent indicates content is not strictly ordered by page, then line.
	ErrUnsortedContent = errors.New("content must be sorted by page, then line")
)
