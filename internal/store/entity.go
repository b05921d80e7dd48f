package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

// Index names.
const (
	userFidIndex = "userFid"
	bookKeyIndex = "bookKey"
)

// Entity provides document operations for one collection of type T.
// Writes are merges over the stored JSON, and field indexes are kept in the
// same transaction as the document.
type Entity[T any] struct {
	store      *Store
	collection string
	indexes    []Index[T]
}

// Index is a non-unique field-equality index on an entity.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// rawDocument is a stored document in generic form.
type rawDocument struct {
	ID     string
	Fields map[string]any
	Data   []byte
}

// NewEntity creates an Entity for a collection.
func NewEntity[T any](s *Store, collection string) *Entity[T] {
	return &Entity[T]{
		store:      s,
		collection: collection,
	}
}

// WithIndex adds a field index. keyGen returns the indexed values of a document.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

// Get retrieves a document by id. Returns ErrNotFound if it does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	var out *T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		v, err := e.getTxn(txn, id)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether a document exists.
func (e *Entity[T]) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		found, err = e.existsTxn(txn, id)
		return err
	})
	return found, err
}

// List returns every document of the collection.
func (e *Entity[T]) List(ctx context.Context) ([]*T, error) {
	var out []*T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		docs, err := e.listRawTxn(txn)
		if err != nil {
			return err
		}
		out = make([]*T, 0, len(docs))
		for _, d := range docs {
			v, err := decodeInto[T](d.Data)
			if err != nil {
				e.warnSkip(d.ID, err)
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// ListByIndex returns the documents whose indexed field equals value.
func (e *Entity[T]) ListByIndex(ctx context.Context, index, value string) ([]*T, error) {
	var out []*T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		ids := e.indexIDsTxn(txn, index, value)
		out = make([]*T, 0, len(ids))
		for _, id := range ids {
			v, err := e.getTxn(txn, id)
			if errors.Is(err, ErrNotFound) {
				// dangling entry, the document is gone
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	data, err := e.getBytesTxn(txn, id)
	if err != nil {
		return nil, err
	}
	return decodeInto[T](data)
}

func (e *Entity[T]) getBytesTxn(txn *badger.Txn, id string) ([]byte, error) {
	key := buildKey(e.collection, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", e.collection, id, err)
	}
	return item.ValueCopy(nil)
}

func (e *Entity[T]) existsTxn(txn *badger.Txn, id string) (bool, error) {
	key := buildKey(e.collection, id)
	defer releaseKey(key)

	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// mergeTxn merges patch into the document, creating it if needed, and
// moves index entries whose values changed.
func (e *Entity[T]) mergeTxn(txn *badger.Txn, id string, patch Fields) (*T, error) {
	var oldVal *T
	oldData, err := e.getBytesTxn(txn, id)
	switch {
	case errors.Is(err, ErrNotFound):
		oldData = nil
	case err != nil:
		return nil, err
	default:
		if oldVal, err = decodeInto[T](oldData); err != nil {
			return nil, err
		}
	}

	doc, err := decodeDocument(oldData)
	if err != nil {
		return nil, err
	}
	data, err := encodeDocument(mergeDocument(doc, patch))
	if err != nil {
		return nil, err
	}
	newVal, err := decodeInto[T](data)
	if err != nil {
		return nil, err
	}

	if err := txn.Set(docKey(e.collection, id), data); err != nil {
		return nil, fmt.Errorf("set %s/%s: %w", e.collection, id, err)
	}
	if err := e.reindexTxn(txn, id, oldVal, newVal); err != nil {
		return nil, err
	}
	return newVal, nil
}

// patchRawTxn merges patch into an existing document without decoding it
// into T, so documents carrying legacy field shapes can still be rewritten.
// Only valid on entities without indexes.
func (e *Entity[T]) patchRawTxn(txn *badger.Txn, doc rawDocument, patch Fields) error {
	if len(e.indexes) > 0 {
		return fmt.Errorf("raw patch on indexed collection %s", e.collection)
	}
	data, err := encodeDocument(mergeDocument(doc.Fields, patch))
	if err != nil {
		return err
	}
	if err := txn.Set(docKey(e.collection, doc.ID), data); err != nil {
		return fmt.Errorf("set %s/%s: %w", e.collection, doc.ID, err)
	}
	return nil
}

// deleteTxn removes the document and its index entries. Deleting a missing
// document is not an error.
func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) (bool, error) {
	old, err := e.getTxn(txn, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := e.reindexTxn(txn, id, old, nil); err != nil {
		return false, err
	}
	if err := txn.Delete(docKey(e.collection, id)); err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", e.collection, id, err)
	}
	return true, nil
}

func (e *Entity[T]) reindexTxn(txn *badger.Txn, id string, oldVal, newVal *T) error {
	for _, idx := range e.indexes {
		var oldKeys, newKeys []string
		if oldVal != nil {
			oldKeys = idx.keyGen(oldVal)
		}
		if newVal != nil {
			newKeys = idx.keyGen(newVal)
		}

		for _, k := range oldKeys {
			if slices.Contains(newKeys, k) {
				continue
			}
			if err := txn.Delete(indexEntryKey(e.collection, idx.name, k, id)); err != nil {
				return fmt.Errorf("delete index %s: %w", idx.name, err)
			}
		}
		for _, k := range newKeys {
			if slices.Contains(oldKeys, k) {
				continue
			}
			if err := txn.Set(indexEntryKey(e.collection, idx.name, k, id), nil); err != nil {
				return fmt.Errorf("set index %s: %w", idx.name, err)
			}
		}
	}
	return nil
}

// indexIDsTxn returns the ids of documents indexed under value.
func (e *Entity[T]) indexIDsTxn(txn *badger.Txn, index, value string) []string {
	prefix := indexValuePrefix(e.collection, index, value)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids
}

// listRawTxn returns the direct documents of the collection.
func (e *Entity[T]) listRawTxn(txn *badger.Txn) ([]rawDocument, error) {
	prefix := collectionPrefix(e.collection)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	var docs []rawDocument
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if !isDirectChild(item.Key(), prefix) {
			continue
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", item.Key(), err)
		}
		fields, err := decodeDocument(data)
		if err != nil {
			e.warnSkip(string(item.Key()), err)
			continue
		}
		docs = append(docs, rawDocument{
			ID:     string(item.Key()[len(prefix):]),
			Fields: fields,
			Data:   data,
		})
	}
	return docs, nil
}

func (e *Entity[T]) warnSkip(id string, err error) {
	if e.store.logger != nil {
		e.store.logger.Warn("skipping undecodable document",
			"collection", e.collection,
			"id", id,
			"error", err,
		)
	}
}
