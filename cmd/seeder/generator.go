package main

import (
	"bufio"
	"fmt"
	"iter"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/poiesic/bookscan/core"
)

var sentences = []string{
	"The submarine drifted silently beneath the phosphorescent surface of the ocean.",
	"Our harpooner watched the horizon with extraordinary patience and determination.",
	"Captain Nemo examined the instruments that measured pressure and temperature.",
	"A magnificent collection of shells lined the cabinets of the drawing room.",
	"The professor catalogued every unfamiliar specimen with meticulous handwriting.",
	"Darkness enveloped the vessel as it descended toward the unexplored abyss.",
	"Electricity illuminated the corridors with a steady and unwavering brilliance.",
	"Conseil classified the fishes according to their families and subfamilies.",
	"The manuscript described an archipelago that appeared on no navigational chart.",
	"Through the panels we observed forests of coral stretching into obscurity.",
	"The librarian restored the crumbling bindings of the oldest atlases.",
	"Typesetters arranged the paragraphs so that no widow remained on any page.",
	"An apprentice compositor hyphenated extraordinary words whenever space demanded.",
	"The navigator consulted almanacs, sextants, chronometers and tide tables.",
	"Barnacles encrusted the underside of the abandoned whaling schooner.",
	"Phosphorescence shimmered along the wake like scattered constellations.",
	"The expedition recorded temperatures throughout the interminable polar night.",
	"Scholars disagreed about the provenance of the illuminated manuscript.",
	"Storm clouds gathered over the archipelago while the barometer plummeted.",
	"The catalogue listed incunabula, broadsides, pamphlets and correspondence.",
}

// wordsFromFile returns an iterator over the words of a text file.
func wordsFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// wordsFromSlice returns an iterator over the words of a slice of sentences.
func wordsFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			for _, word := range strings.Fields(line) {
				if !yield(word) {
					return
				}
			}
		}
	}
}

// minFragment is the shortest piece a word is split into when hyphenated.
const minFragment = 2

// wrapWords breaks a word stream into lines no wider than width.
// A word that does not fit is hyphenated across the break when both
// fragments keep at least minFragment characters, otherwise it moves to the
// next line whole.
func wrapWords(words iter.Seq[string], width int) iter.Seq[string] {
	return func(yield func(string) bool) {
		var line strings.Builder
		for word := range words {
			for word != "" {
				sep := 0
				if line.Len() > 0 {
					sep = 1
				}
				room := width - line.Len() - sep

				if len(word) <= room {
					if sep == 1 {
						line.WriteByte(' ')
					}
					line.WriteString(word)
					word = ""
					continue
				}

				// keep one column for the hyphen
				head := room - 1
				if head >= minFragment && len(word)-head >= minFragment {
					if sep == 1 {
						line.WriteByte(' ')
					}
					line.WriteString(word[:head])
					line.WriteByte('-')
					word = word[head:]
				} else if line.Len() == 0 {
					// a single word wider than the line is emitted as is
					line.WriteString(word)
					word = ""
				}

				if !yield(line.String()) {
					return
				}
				line.Reset()
			}
		}
		if line.Len() > 0 {
			yield(line.String())
		}
	}
}

// cycle repeats words forever, starting at offset.
func cycle(words []string, offset int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(words) == 0 {
			return
		}
		for i := offset; ; i++ {
			if !yield(words[i%len(words)]) {
				return
			}
		}
	}
}

// layout describes the shape of generated books.
type layout struct {
	pages        int
	linesPerPage int
	width        int
}

// generateBook lays out wrapped text from words on consecutive pages.
func generateBook(isbn string, words []string, offset int, l layout) *core.Book {
	book := &core.Book{
		ISBN:    isbn,
		Title:   fmt.Sprintf("Synthetic Volume %s", isbn),
		Content: make([]core.ScannedLine, 0, l.pages*l.linesPerPage),
	}

	total := l.pages * l.linesPerPage
	n := 0
	for text := range wrapWords(cycle(words, offset), l.width) {
		book.Content = append(book.Content, core.ScannedLine{
			Page: n/l.linesPerPage + 1,
			Line: n%l.linesPerPage + 1,
			Text: text,
		})
		n++
		if n == total {
			break
		}
	}
	return book
}

// syntheticISBN returns a 13 digit ISBN-like identifier for book i.
func syntheticISBN(i int) string {
	return fmt.Sprintf("978%010d", i)
}

// generateLibrary creates count books with randomized starting offsets.
func generateLibrary(rng *rand.Rand, words []string, count int, l layout) []*core.Book {
	books := make([]*core.Book, 0, count)
	for i := range count {
		offset := 0
		if len(words) > 0 {
			offset = rng.IntN(len(words))
		}
		books = append(books, generateBook(syntheticISBN(i+1), words, offset, l))
	}
	return books
}
