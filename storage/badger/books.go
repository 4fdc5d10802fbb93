package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bookscan/core"
	"github.com/poiesic/bookscan/storage"
)

// BookRepository implements storage.BookRepository for BadgerDB.
type BookRepository struct {
	backend  *Backend
	orderSeq *badger.Sequence
}

var _ storage.BookRepository = (*BookRepository)(nil)

// NewBookRepository creates a new BookRepository.
func NewBookRepository(backend *Backend) (*BookRepository, error) {
	orderSeq, err := backend.GetSequence(bookOrderSeq)
	if err != nil {
		return nil, err
	}

	return &BookRepository{
		backend:  backend,
		orderSeq: orderSeq,
	}, nil
}

// Close releases the order sequence.
func (r *BookRepository) Close() error {
	return r.orderSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *BookRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddBooks stores one or more books, replacing existing books with the same ISBN.
func (r *BookRepository) AddBooks(ctx context.Context, books ...*core.Book) ([]*core.Book, error) {
	for i, book := range books {
		if book == nil {
			return nil, fmt.Errorf("%w: book %d is nil", storage.ErrInvalidQuery, i)
		}
		if book.ISBN == "" {
			return nil, fmt.Errorf("%w: book %d: %w", storage.ErrInvalidQuery, i, core.ErrEmptyISBN)
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, book := range books {
			key := makeBookKey(core.IDFromContent(book.ISBN))

			existing, err := r.readBookRecord(tx, key)
			if err != nil {
				return err
			}

			record := &storage.BookRecord{
				InsertedAt: now,
				UpdatedAt:  now,
				Book:       book,
			}
			if existing != nil {
				// Replacing content keeps the library position
				record.Seq = existing.Seq
				record.InsertedAt = existing.InsertedAt
			} else {
				seq, err := r.nextSeq()
				if err != nil {
					return err
				}
				record.Seq = seq
				orderKey := makeBookOrderKey(seq)
				if err := tx.Set(orderKey, storage.MarshalID(core.IDFromContent(book.ISBN))); err != nil {
					return err
				}
			}

			value, err := storage.MarshalBookRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return books, nil
}

// nextSeq returns the next library position.
func (r *BookRepository) nextSeq() (uint64, error) {
	seq, err := r.orderSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if seq == 0 {
		return r.orderSeq.Next()
	}
	return seq, nil
}

// GetBook retrieves a single book by ISBN.
func (r *BookRepository) GetBook(ctx context.Context, isbn string) (*core.Book, error) {
	var result *core.Book
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		record, err := r.readBookRecord(tx, makeBookKey(core.IDFromContent(isbn)))
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: isbn %s", storage.ErrNotFound, isbn)
		}
		result = record.Book
		return nil
	}, false)
	return result, err
}

// GetBooks retrieves multiple books by ISBN.
func (r *BookRepository) GetBooks(ctx context.Context, isbns ...string) ([]*core.Book, error) {
	results := make([]*core.Book, 0, len(isbns))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, isbn := range isbns {
			record, err := r.readBookRecord(tx, makeBookKey(core.IDFromContent(isbn)))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record.Book)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListBooks retrieves every book in library order.
func (r *BookRepository) ListBooks(ctx context.Context) ([]*core.Book, error) {
	books := []*core.Book{}
	err := r.ForEachBook(ctx, func(book *core.Book) error {
		books = append(books, book)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// ForEachBook calls fn for every book in library order.
func (r *BookRepository) ForEachBook(ctx context.Context, fn func(*core.Book) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookOrderPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			record, err := r.readBookRecord(tx, makeBookKey(id))
			if err != nil {
				return err
			}
			if record == nil {
				// Order entry without a record; skip it
				r.backend.logger.Warn("dangling library order entry", "id", id)
				continue
			}

			if err := fn(record.Book); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountBooks returns the number of stored books.
func (r *BookRepository) CountBooks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookOrderPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteBooks removes books by ISBN.
func (r *BookRepository) DeleteBooks(ctx context.Context, isbns ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, isbn := range isbns {
			key := makeBookKey(core.IDFromContent(isbn))

			record, err := r.readBookRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: isbn %s", storage.ErrNotFound, isbn)
			}

			if err := tx.Delete(makeBookOrderKey(record.Seq)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readBookRecord reads a book record within a transaction.
// Returns nil, nil if the record doesn't exist.
func (r *BookRepository) readBookRecord(tx *badger.Txn, key []byte) (*storage.BookRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *storage.BookRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalBookRecord(val)
		return err
	})
	return record, err
}
