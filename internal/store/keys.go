package store

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// Key layout:
//
//	{collection}/{id}                               document
//	{collection}/{parent}/{sub}/{id}                nested document
//	idx/{collection}/{index}/{escaped value}/{id}   field-equality index entry
const (
	keySep      = "/"
	indexPrefix = "idx/"
)

// keyPool provides reusable byte slices for read-side key lookups.
// Keys handed to txn.Set or txn.Delete must not come from the pool because
// badger keeps a reference to them until commit.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

// buildKey joins parts with the key separator into a pooled buffer.
// Callers MUST call releaseKey when done with the key.
func buildKey(parts ...string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, keySep...)
		}
		buf = append(buf, p...)
	}
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

// docKey is the key of a top-level document.
func docKey(collection, id string) []byte {
	return []byte(collection + keySep + id)
}

// collectionPrefix is the scan prefix of a collection.
func collectionPrefix(collection string) []byte {
	return []byte(collection + keySep)
}

// subDocKey is the key of a document nested under a parent document.
func subDocKey(collection, parentID, sub, id string) []byte {
	return []byte(collection + keySep + parentID + keySep + sub + keySep + id)
}

// subCollectionPrefix is the scan prefix of a nested collection.
func subCollectionPrefix(collection, parentID, sub string) []byte {
	return []byte(collection + keySep + parentID + keySep + sub + keySep)
}

// parentPrefix covers every nested document of a parent.
func parentPrefix(collection, parentID string) []byte {
	return []byte(collection + keySep + parentID + keySep)
}

// indexValuePrefix is the scan prefix of all index entries for one value.
// Values are path-escaped because book keys contain slashes.
func indexValuePrefix(collection, index, value string) []byte {
	return []byte(indexPrefix + collection + keySep + index + keySep + url.PathEscape(value) + keySep)
}

// indexEntryKey is the key of a single index entry.
func indexEntryKey(collection, index, value, id string) []byte {
	return append(indexValuePrefix(collection, index, value), id...)
}

// isDirectChild reports whether key (under prefix) names a document of the
// collection itself rather than something nested below it.
func isDirectChild(key, prefix []byte) bool {
	if len(key) <= len(prefix) {
		return false
	}
	return !strings.Contains(string(key[len(prefix):]), keySep)
}

// fidKey renders a platform identity as a key component.
func fidKey(fid int64) string {
	return strconv.FormatInt(fid, 10)
}

// counterKey is the key of a sequence counter document.
func counterKey(name string) []byte {
	return docKey(countersCollection, name)
}

// bookIDOf normalizes a book key into the id used in store keys. Ids that
// could reach into another document's key space are rejected.
func bookIDOf(key string) (string, error) {
	bookID := domain.NormalizeBookKey(key)
	if !domain.ValidDocumentID(bookID) {
		return "", ErrInvalidInput.WithMessage("invalid book key")
	}
	return bookID, nil
}

// relationshipIDOf builds the relationship id of a (user, book) pair.
func relationshipIDOf(fid int64, bookKey string) (string, error) {
	bookID, err := bookIDOf(bookKey)
	if err != nil {
		return "", err
	}
	return domain.RelationshipID(fid, bookID), nil
}

// checkRelationshipID validates a relationship id received from a client.
func checkRelationshipID(relID string) error {
	if !domain.ValidDocumentID(relID) {
		return ErrInvalidInput.WithMessage("invalid relationship id")
	}
	return nil
}
