package badger

import (
	"encoding/binary"

	"github.com/poiesic/bookscan/core"
)

// Key prefixes for different data types
const (
	bookRecordPrefix = "bkrec:"
	bookOrderPrefix  = "bkord:"
	bookOrderSeq     = "bkseq"
	checkpointPrefix = "srcchk:"
)

// makeBookKey generates a key for a book record by ID.
// Format: prefix:id
func makeBookKey(id core.ID) []byte {
	return appendUint64([]byte(bookRecordPrefix), uint64(id))
}

// makeBookOrderKey generates a key for the library order index.
// Format: prefix:seq, big-endian so iteration follows insertion order.
func makeBookOrderKey(seq uint64) []byte {
	return appendUint64([]byte(bookOrderPrefix), seq)
}

// makeCheckpointKey generates a key for a source checkpoint.
func makeCheckpointKey(source string) []byte {
	return append([]byte(checkpointPrefix), source...)
}

func appendUint64(prefix []byte, v uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], v)
	return buf
}
