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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/bookscan/core"
)

// BookRecord is the stored envelope around a book.
type BookRecord struct {
	Seq        uint64
	InsertedAt time.Time
	UpdatedAt  time.Time
	Book       *core.Book
}

// BookRecordMUS serializes a BookRecord. The book must not be nil.
var BookRecordMUS = bookRecordMUS{}

type bookRecordMUS struct{}

func (s bookRecordMUS) Marshal(v BookRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Seq, bs)
	n += core.TimeMUS.Marshal(v.InsertedAt, bs[n:])
	n += core.TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	n += core.BookMUS.Marshal(*v.Book, bs[n:])
	return
}

func (s bookRecordMUS) Unmarshal(bs []byte) (v BookRecord, n int, err error) {
	v.Seq, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.InsertedAt, n1, err = core.TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = core.TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	book, n1, err := core.BookMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Book = &book
	return
}

func (s bookRecordMUS) Size(v BookRecord) (size int) {
	return varint.Uint64.Size(v.Seq) + core.TimeMUS.Size(v.InsertedAt) +
		core.TimeMUS.Size(v.UpdatedAt) + core.BookMUS.Size(*v.Book)
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if size := core.IDMUS.Size(0); len(data) < size {
		return 0, fmt.Errorf("%w: id needs %d bytes, got %d", ErrTruncatedData, size, len(data))
	}
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalBookRecord serializes a BookRecord to bytes.
func MarshalBookRecord(record *BookRecord) ([]byte, error) {
	if record == nil || record.Book == nil {
		return nil, fmt.Errorf("%w: record has no book", ErrSerializationFailed)
	}
	buf := make([]byte, BookRecordMUS.Size(*record))
	BookRecordMUS.Marshal(*record, buf)
	return buf, nil
}

// UnmarshalBookRecord deserializes a BookRecord from bytes.
func UnmarshalBookRecord(data []byte) (*BookRecord, error) {
	record, _, err := BookRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalCheckpoint serializes a SourceCheckpoint to bytes.
func MarshalCheckpoint(checkpoint *core.SourceCheckpoint) ([]byte, error) {
	if checkpoint == nil {
		return nil, fmt.Errorf("%w: checkpoint is nil", ErrSerializationFailed)
	}
	buf := make([]byte, core.SourceCheckpointMUS.Size(*checkpoint))
	core.SourceCheckpointMUS.Marshal(*checkpoint, buf)
	return buf, nil
}

// UnmarshalCheckpoint deserializes a SourceCheckpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.SourceCheckpoint, error) {
	checkpoint, _, err := core.SourceCheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &checkpoint, nil
}
