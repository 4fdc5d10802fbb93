// Package ingestion loads scanned books into a library.
//
// The Pipeline reads JSON and YAML book documents concurrently on a worker
// pool, validates each document against an embedded JSON Schema, decodes it
// into core.Book values and stores the books in the order the files were
// given. Every stored file is checkpointed with a digest of its contents, so
// re-ingesting an unchanged file is a no-op unless forced.
//
// Storage writes that hit a BadgerDB transaction conflict are retried with
// exponential backoff.
package ingestion
