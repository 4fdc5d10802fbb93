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


// Package bookscan searches scanned books for literal terms, including terms
// broken across lines by a hyphenated word wrap.
//
// A Library stores books in BadgerDB and hands out matchers and ingestion
// pipelines bound to it.
package bookscan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/bookscan/config"
	"github.com/poiesic/bookscan/core"
	"github.com/poiesic/bookscan/ingestion"
	"github.com/poiesic/bookscan/metrics"
	"github.com/poiesic/bookscan/search"
	"github.com/poiesic/bookscan/storage"
	"github.com/poiesic/bookscan/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Library is a persistent collection of scanned books.
type Library struct {
	backend          *badger.Backend
	bookRepo         storage.BookRepository
	checkpointRepo   storage.CheckpointRepository
	collector        *metrics.Collector
	matcherDefaults  []search.Option
	pipelineDefaults []ingestion.Option
	logger           *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	inMemory   bool
	logger     *slog.Logger
	registerer prometheus.Registerer
	cfg        *config.Config
}

// WithInMemory opens an in-memory library; the path is ignored.
func WithInMemory(inMemory bool) LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = inMemory
	}
}

// WithLibraryLogger sets a custom logger.
// Default is slog.Default().
func WithLibraryLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		o.logger = logger
	}
}

// WithRegisterer records search metrics in reg for every matcher the
// library creates.
func WithRegisterer(reg prometheus.Registerer) LibraryOption {
	return func(o *libraryOptions) {
		o.registerer = reg
	}
}

// OpenLibrary opens or creates a library at filePath.
func OpenLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return openLibrary(filePath, options)
}

// OpenFromConfig opens the library described by cfg. The config's join
// policy and ingestion settings become the defaults of the matchers and
// pipelines the library creates.
func OpenFromConfig(cfg *config.Config, opts ...LibraryOption) (*Library, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &libraryOptions{
		inMemory: cfg.InMemory,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(options)
	}
	return openLibrary(cfg.DatabasePath, options)
}

func openLibrary(filePath string, options *libraryOptions) (*Library, error) {
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	var matcherDefaults []search.Option
	var pipelineDefaults []ingestion.Option
	if cfg := options.cfg; cfg != nil {
		policy, err := cfg.Policy()
		if err != nil {
			return nil, err
		}
		matcherDefaults = append(matcherDefaults, search.WithJoinPolicy(policy))
		pipelineDefaults = append(pipelineDefaults,
			ingestion.WithSortContent(cfg.SortContent),
			ingestion.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		)
		if cfg.PoolSize > 0 {
			pipelineDefaults = append(pipelineDefaults, ingestion.WithPoolSize(cfg.PoolSize))
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory, logger)
	if err != nil {
		return nil, err
	}

	bookRepo, err := badger.NewBookRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// registered last so a failed open leaves the registry untouched
	var collector *metrics.Collector
	if options.registerer != nil {
		collector, err = metrics.NewCollector(options.registerer)
		if err != nil {
			bookRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Library{
		backend:          backend,
		bookRepo:         bookRepo,
		checkpointRepo:   badger.NewCheckpointRepository(backend),
		collector:        collector,
		matcherDefaults:  matcherDefaults,
		pipelineDefaults: pipelineDefaults,
		logger:           logger,
	}, nil
}

// Close releases the repositories and the backend. The backend is closed
// even when releasing the book repository fails.
func (l *Library) Close() error {
	var errs []error
	if err := l.bookRepo.Close(); err != nil {
		l.logger.Error("error closing book repository", "err", err)
		errs = append(errs, err)
	}

	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Books returns the library's book repository.
func (l *Library) Books() storage.BookRepository {
	return l.bookRepo
}

// Checkpoints returns the repository of ingested source digests.
func (l *Library) Checkpoints() storage.CheckpointRepository {
	return l.checkpointRepo
}

// NewMatcher creates a matcher that logs through the library logger and,
// when a registerer was given, reports to the library's metrics.
// opts are applied after the library defaults.
func (l *Library) NewMatcher(opts ...search.Option) (*search.Matcher, error) {
	all := []search.Option{search.WithLogger(l.logger)}
	if l.collector != nil {
		all = append(all, search.WithMonitor(l.collector))
	}
	all = append(all, l.matcherDefaults...)
	all = append(all, opts...)
	return search.NewMatcher(all...)
}

// NewIngestionPipeline creates a pipeline that stores into this library.
// opts are applied after the library defaults.
func (l *Library) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	all := []ingestion.Option{ingestion.WithLogger(l.logger)}
	all = append(all, l.pipelineDefaults...)
	all = append(all, opts...)
	return ingestion.NewPipeline(l.bookRepo, l.checkpointRepo, all...)
}

// Search runs term against every book in library order.
func (l *Library) Search(ctx context.Context, term string, opts ...search.Option) (*core.SearchResponse, error) {
	matcher, err := l.NewMatcher(opts...)
	if err != nil {
		return nil, err
	}

	books, err := l.bookRepo.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	return matcher.Search(term, books)
}
