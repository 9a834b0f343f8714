package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ListStore is the filter-oriented companion to KeyValueStore: documents
// carry a database-assigned identity and are addressed by predicates over
// their fields rather than by single-key lookups. Unlike KeyValueStore's
// Update, the merge performed here is a direct field write with no
// read-modify-write guarantee.
type ListStore struct {
	conn Connector
	name string
	log  *slog.Logger
}

func NewListStore(conn Connector, name string, log *slog.Logger) *ListStore {
	return &ListStore{conn: conn, name: name, log: log}
}

func (s *ListStore) prefix() []byte {
	return []byte(fmt.Sprintf("doc:%s:", s.name))
}

func (s *ListStore) documentKey(id string) []byte {
	return append(s.prefix(), id...)
}

// GetAll returns every matching document, sorted when a sort is given and
// otherwise in no particular order. An unreachable database degrades to an
// empty result.
func (s *ListStore) GetAll(filter Filter, sorts ...Sort) ([]Document, error) {
	db, err := s.conn.Handle()
	if err != nil {
		s.log.Warn("Read degraded to empty result", "store", s.name, "error", err)
		return nil, nil
	}

	var docs []Document
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(s.prefix()); it.ValidForPrefix(s.prefix()); it.Next() {
			err := it.Item().Value(func(raw []byte) error {
				var doc Document
				if err := json.Unmarshal(raw, &doc); err != nil {
					return err
				}
				if filter.Matches(doc) {
					docs = append(docs, doc)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sorts) > 0 {
		sortDocuments(docs, sorts[0])
	}
	return docs, nil
}

// GetOne returns the first matching document, nil when nothing matches.
func (s *ListStore) GetOne(filter Filter) (Document, error) {
	db, err := s.conn.Handle()
	if err != nil {
		s.log.Warn("Read degraded to empty result", "store", s.name, "error", err)
		return nil, nil
	}

	var found Document
	err = db.View(func(txn *badger.Txn) error {
		_, doc, err := s.firstMatch(txn, filter)
		found = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Insert stores the document and returns a copy carrying its assigned
// identity.
func (s *ListStore) Insert(doc Document) (Document, error) {
	db, err := s.conn.Handle()
	if err != nil {
		return nil, err
	}

	stored := make(Document, len(doc)+1)
	for field, value := range doc {
		stored[field] = value
	}
	stored[IDField] = uuid.New().String()

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.documentKey(stored[IDField].(string)), raw)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Update merges the partial document's fields into the first document
// matched by filter and reports whether one was found. The identity field
// cannot be rewritten.
func (s *ListStore) Update(filter Filter, partial Document) (bool, error) {
	db, err := s.conn.Handle()
	if err != nil {
		return false, err
	}

	var updated bool
	err = db.Update(func(txn *badger.Txn) error {
		key, doc, err := s.firstMatch(txn, filter)
		if err != nil || doc == nil {
			return err
		}
		for field, value := range partial {
			if field == IDField {
				continue
			}
			doc[field] = value
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := txn.Set(key, raw); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}

// Delete removes the first document matched by filter and reports whether
// one was deleted.
func (s *ListStore) Delete(filter Filter) (bool, error) {
	db, err := s.conn.Handle()
	if err != nil {
		return false, err
	}

	var deleted bool
	err = db.Update(func(txn *badger.Txn) error {
		key, doc, err := s.firstMatch(txn, filter)
		if err != nil || doc == nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// firstMatch scans the store's prefix inside txn and returns the key and
// document of the first match, nil when nothing matches. The iterator is
// closed before returning: badger forbids writes while one is open, and
// Update and Delete mutate right after the find.
func (s *ListStore) firstMatch(txn *badger.Txn, filter Filter) ([]byte, Document, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(s.prefix()); it.ValidForPrefix(s.prefix()); it.Next() {
		item := it.Item()
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, nil, err
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, err
		}
		if filter.Matches(doc) {
			return item.KeyCopy(nil), doc, nil
		}
	}
	return nil, nil, nil
}
