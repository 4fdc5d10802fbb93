package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored records.
// Times are kept as Unix microseconds and decoded in UTC.
var (
	IDMUS               = idMUS{}
	TimeMUS             = timeMUS{}
	ScannedLineMUS      = scannedLineMUS{}
	BookMUS             = bookMUS{}
	SourceCheckpointMUS = sourceCheckpointMUS{}
)

// ErrContentLength is returned when an encoded book claims more lines than
// its data can hold.
var ErrContentLength = errors.New("content length exceeds data")

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return raw.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := raw.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return raw.Uint64.Size(uint64(v))
}

type timeMUS struct{}

func (s timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (s timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

type scannedLineMUS struct{}

func (s scannedLineMUS) Marshal(v ScannedLine, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Page, bs)
	n += varint.Int.Marshal(v.Line, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	return
}

func (s scannedLineMUS) Unmarshal(bs []byte) (v ScannedLine, n int, err error) {
	v.Page, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Line, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s scannedLineMUS) Size(v ScannedLine) (size int) {
	return varint.Int.Size(v.Page) + varint.Int.Size(v.Line) + ord.String.Size(v.Text)
}

type bookMUS struct{}

func (s bookMUS) Marshal(v Book, bs []byte) (n int) {
	n = ord.String.Marshal(v.ISBN, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(v.Content)), bs[n:])
	for _, line := range v.Content {
		n += ScannedLineMUS.Marshal(line, bs[n:])
	}
	return
}

func (s bookMUS) Unmarshal(bs []byte) (v Book, n int, err error) {
	v.ISBN, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	length, n1, err := varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// every encoded line takes at least one byte per field
	if length > uint64(len(bs)-n) {
		err = ErrContentLength
		return
	}
	v.Content = make([]ScannedLine, 0, length)
	for range length {
		var line ScannedLine
		line, n1, err = ScannedLineMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Content = append(v.Content, line)
	}
	return
}

func (s bookMUS) Size(v Book) (size int) {
	size = ord.String.Size(v.ISBN) + ord.String.Size(v.Title)
	size += varint.Uint64.Size(uint64(len(v.Content)))
	for _, line := range v.Content {
		size += ScannedLineMUS.Size(line)
	}
	return
}

type sourceCheckpointMUS struct{}

func (s sourceCheckpointMUS) Marshal(v SourceCheckpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Source, bs)
	n += IDMUS.Marshal(v.Digest, bs[n:])
	n += varint.Int.Marshal(v.Books, bs[n:])
	n += TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s sourceCheckpointMUS) Unmarshal(bs []byte) (v SourceCheckpoint, n int, err error) {
	v.Source, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Digest, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Books, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s sourceCheckpointMUS) Size(v SourceCheckpoint) (size int) {
	return ord.String.Size(v.Source) + IDMUS.Size(v.Digest) +
		varint.Int.Size(v.Books) + TimeMUS.Size(v.UpdatedAt)
}
