// Command dbinspect prints a read-only summary of a Readerboard database.
//
// Without arguments it counts the documents of every collection. With
// -collection it dumps that collection's documents as indented JSON.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type collectionStats struct {
	documents int
	nested    map[string]int
}

func main() {
	dbPath := flag.String("db", defaultDBPath(), "Path to the badger database")
	collection := flag.String("collection", "", "Dump documents of this collection (e.g. users, userBooks)")
	limit := flag.Int("limit", 20, "Maximum documents to dump")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *collection != "" {
		if err := dump(db, *collection, *limit); err != nil {
			log.Fatalf("Error dumping %s: %v", *collection, err)
		}
		return
	}

	stats, indexEntries, err := summarize(db)
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		s := stats[name]
		fmt.Printf("%-14s %6d documents\n", name, s.documents)

		subs := make([]string, 0, len(s.nested))
		for sub := range s.nested {
			subs = append(subs, sub)
		}
		slices.Sort(subs)
		for _, sub := range subs {
			fmt.Printf("  %-12s %6d nested\n", sub, s.nested[sub])
		}
	}
	fmt.Println()
	fmt.Printf("Index entries: %d\n", indexEntries)
}

func defaultDBPath() string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	if base := os.Getenv("DATA_PATH"); base != "" {
		return filepath.Join(base, "db")
	}
	return os.ExpandEnv("$HOME/Readerboard/data/db")
}

// summarize counts documents per collection. Keys are
// {collection}/{id} or {collection}/{parent}/{sub}/{id}.
func summarize(db *badger.DB) (map[string]*collectionStats, int, error) {
	stats := make(map[string]*collectionStats)
	indexEntries := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key, "idx/") {
				indexEntries++
				continue
			}

			parts := strings.Split(key, "/")
			s, ok := stats[parts[0]]
			if !ok {
				s = &collectionStats{nested: make(map[string]int)}
				stats[parts[0]] = s
			}
			switch len(parts) {
			case 2:
				s.documents++
			case 4:
				s.nested[parts[2]]++
			}
		}
		return nil
	})
	return stats, indexEntries, err
}

// dump prints up to limit direct documents of a collection.
func dump(db *badger.DB, collection string, limit int) error {
	prefix := []byte(collection + "/")
	printed := 0

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && printed < limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			if strings.Count(key, "/") != 1 {
				continue
			}

			err := item.Value(func(val []byte) error {
				var out bytes.Buffer
				if err := json.Indent(&out, val, "", "  "); err != nil {
					return fmt.Errorf("document %s: %w", key, err)
				}
				fmt.Printf("# %s\n%s\n\n", key, out.String())
				return nil
			})
			if err != nil {
				log.Printf("Error reading %s: %v", key, err)
				continue
			}
			printed++
		}
		return nil
	})
}
