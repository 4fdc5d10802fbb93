package storage

import (
	"testing"
	"time"

	"github.com/poiesic/bookscan/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalID_RoundTrip(t *testing.T) {
	ids := []core.ID{0, 1, 255, 256, 1 << 40, core.ID(18446744073709551615)}
	for _, id := range ids {
		data := MarshalID(id)
		assert.Len(t, data, 8)

		decoded, err := UnmarshalID(data)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestUnmarshalID_Truncated(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalID(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestBookRecord_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	tests := []struct {
		name   string
		record *BookRecord
	}{
		{
			name: "full book",
			record: &BookRecord{
				Seq:        7,
				InsertedAt: now.Add(-time.Hour),
				UpdatedAt:  now,
				Book: &core.Book{
					ISBN:  "9780000528531",
					Title: "Twenty Thousand Leagues Under the Sea",
					Content: []core.ScannedLine{
						{Page: 31, Line: 8, Text: "now simply went on by her own momentum.  The dark-"},
						{Page: 31, Line: 9, Text: "ness was then profound; and however good the Canadian's"},
					},
				},
			},
		},
		{
			name: "empty content and title",
			record: &BookRecord{
				Seq:        1,
				InsertedAt: now,
				UpdatedAt:  now,
				Book:       &core.Book{ISBN: "x", Content: []core.ScannedLine{}},
			},
		},
		{
			name: "unicode text",
			record: &BookRecord{
				Seq:  1 << 40,
				Book: &core.Book{ISBN: "y", Content: []core.ScannedLine{{Page: 1, Line: 1, Text: "Ægir – über"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalBookRecord(tt.record)
			require.NoError(t, err)

			decoded, err := UnmarshalBookRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record.Seq, decoded.Seq)
			assert.True(t, tt.record.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.record.UpdatedAt.Equal(decoded.UpdatedAt))
			assert.Equal(t, tt.record.Book, decoded.Book)
		})
	}
}

func TestMarshalBookRecord_NoBook(t *testing.T) {
	_, err := MarshalBookRecord(&BookRecord{Seq: 1})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = MarshalBookRecord(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalBookRecord_Invalid(t *testing.T) {
	valid, err := MarshalBookRecord(&BookRecord{
		Seq:  3,
		Book: &core.Book{ISBN: "9780000528531", Content: []core.ScannedLine{{Page: 1, Line: 1, Text: "text"}}},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)-3]},
		{"header only", valid[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBookRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	checkpoint := &core.SourceCheckpoint{
		Source:    "/library/leagues.json",
		Digest:    core.IDFromContent("leagues"),
		Books:     12,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	data, err := MarshalCheckpoint(checkpoint)
	require.NoError(t, err)

	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Source, decoded.Source)
	assert.Equal(t, checkpoint.Digest, decoded.Digest)
	assert.Equal(t, checkpoint.Books, decoded.Books)
	assert.True(t, checkpoint.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalCheckpoint_Invalid(t *testing.T) {
	_, err := UnmarshalCheckpoint([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
