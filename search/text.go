package search

import "strings"

const hyphen = "-"

// endsWithHyphen reports whether a line ends in a single ASCII hyphen,
// marking a word wrapped onto the next line.
func endsWithHyphen(text string) bool {
	return strings.HasSuffix(text, hyphen)
}

// joinHyphenated drops the trailing hyphen from head and appends tail
// with no separator, reconstructing the wrapped word.
func joinHyphenated(head, tail string) string {
	return strings.TrimSuffix(head, hyphen) + tail
}
