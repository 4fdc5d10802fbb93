package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/poiesic/bookscan"
	"github.com/poiesic/bookscan/core"
	"github.com/poiesic/bookscan/ingestion"
	"github.com/schollz/progressbar/v3"
)

var (
	seedFileName = flag.String("src", "", "text file to draw words from")
	dbPath       = flag.String("db", "./bookscan.db", "library to seed")
	outFileName  = flag.String("out", "", "write a JSON book document instead of seeding a library")
	bookCount    = flag.Int("books", 50, "number of books to generate")
	pageCount    = flag.Int("pages", 40, "pages per book")
	linesPerPage = flag.Int("lines", 30, "lines per page")
	lineWidth    = flag.Int("width", 60, "maximum characters per line")
	randomSeed   = flag.Uint64("seed", 1, "random seed")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// ingestBatched stores books in batches, advancing bar by one per book.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, books []*core.Book, batchSize int, bar *progressbar.ProgressBar) error {
	for batch := range slices.Chunk(books, batchSize) {
		if _, err := pipeline.IngestBooks(ctx, batch...); err != nil {
			return err
		}
		bar.Add(len(batch))
	}
	return nil
}

func writeDocument(path string, books []*core.Book) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(books)
}

func main() {
	flag.Parse()

	var source = wordsFromSlice(sentences)
	if *seedFileName != "" {
		var err error
		source, err = wordsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	}
	words := slices.Collect(source)

	rng := rand.New(rand.NewPCG(*randomSeed, *randomSeed))
	books := generateLibrary(rng, words, *bookCount, layout{
		pages:        *pageCount,
		linesPerPage: *linesPerPage,
		width:        *lineWidth,
	})

	if *outFileName != "" {
		if err := writeDocument(*outFileName, books); err != nil {
			panic(err)
		}
		slog.Info("wrote book document", "path", *outFileName, "books", len(books))
		return
	}

	lib, err := bookscan.OpenLibrary(*dbPath)
	if err != nil {
		panic(err)
	}
	defer lib.Close()

	ingester, err := lib.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	bar := progressbar.Default(int64(len(books)), "seeding")
	if err := ingestBatched(context.Background(), ingester, books, 5, bar); err != nil {
		panic(err)
	}
	bar.Finish()
	slog.Info("seeded library", "path", *dbPath, "books", len(books))
}
