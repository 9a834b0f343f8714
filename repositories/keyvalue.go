package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/GregoryFarmer/orthant/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Connector hands out the live database handle, establishing the
// connection lazily on first use. Implemented by services.Database.
type Connector interface {
	Handle() (*badger.DB, error)
}

// KeyKind selects the key representation of a store. It is fixed at
// construction; a store never mixes representations.
type KeyKind int

const (
	// StringKeys treats keys as opaque strings.
	StringKeys KeyKind = iota
	// ObjectIDKeys requires keys to be valid object identifiers (UUIDs);
	// malformed keys fail with ErrInvalidKey instead of being coerced.
	ObjectIDKeys
)

// maxTxnRetries bounds how often an Update transaction is re-run after a
// commit conflict before the failure is surfaced to the caller.
const maxTxnRetries = 128

// KeyValueStore is a named binding to one collection of keyed values.
// Values are JSON-encoded documents of type V. Reads degrade to the zero
// value when the database is unreachable; writes propagate the failure.
type KeyValueStore[V any] struct {
	conn Connector
	name string
	keys KeyKind
	log  *slog.Logger
}

func NewKeyValueStore[V any](conn Connector, name string, keys KeyKind, log *slog.Logger) *KeyValueStore[V] {
	return &KeyValueStore[V]{conn: conn, name: name, keys: keys, log: log}
}

// storageKey translates a caller key into the namespaced on-disk key,
// validating it against the store's configured key kind.
func (s *KeyValueStore[V]) storageKey(key string) ([]byte, error) {
	if s.keys == ObjectIDKeys {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidKey, key)
		}
		key = id.String()
	}
	return []byte(fmt.Sprintf("kv:%s:%s", s.name, key)), nil
}

// Get returns the stored value and whether it exists. A failed connection
// attempt is logged and reported as absence so read paths stay non-blocking.
func (s *KeyValueStore[V]) Get(key string) (V, bool, error) {
	var zero V
	k, err := s.storageKey(key)
	if err != nil {
		return zero, false, err
	}
	db, err := s.conn.Handle()
	if err != nil {
		s.log.Warn("Read degraded to empty result", "store", s.name, "error", err)
		return zero, false, nil
	}

	var raw []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return zero, false, err
	}
	if raw == nil {
		return zero, false, nil
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set stores value under key with upsert semantics: the record is created
// if absent and overwritten otherwise.
func (s *KeyValueStore[V]) Set(key string, value V) error {
	k, err := s.storageKey(key)
	if err != nil {
		return err
	}
	db, err := s.conn.Handle()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, raw)
	})
}

// Update runs transform inside one read-write transaction: the current
// value (nil pointer when absent) is read under the transaction's
// isolation, transform computes the replacement, and the result is written
// back before commit. No concurrent Update or Set on the same key can
// interleave between that read and write. Commit conflicts re-run the
// whole transaction, so transform must be free of side effects; transform
// errors abort with nothing written and surface as ErrTransactionAborted.
func (s *KeyValueStore[V]) Update(key string, transform func(old *V) (V, error)) (V, error) {
	var zero V
	k, err := s.storageKey(key)
	if err != nil {
		return zero, err
	}
	db, err := s.conn.Handle()
	if err != nil {
		return zero, err
	}

	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		var result V
		err = db.Update(func(txn *badger.Txn) error {
			var old *V
			item, err := txn.Get(k)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				var current V
				if err := json.Unmarshal(raw, &current); err != nil {
					return err
				}
				old = &current
			}

			next, err := transform(old)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(next)
			if err != nil {
				return err
			}
			if err := txn.Set(k, raw); err != nil {
				return err
			}
			result = next
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return zero, fmt.Errorf("%w: %v", apperrors.ErrTransactionAborted, err)
		}
		return result, nil
	}
	return zero, fmt.Errorf("%w: conflict retries exhausted for key %q", apperrors.ErrTransactionAborted, key)
}

// Remove deletes the record and reports whether one existed. Removing an
// absent key is not an error.
func (s *KeyValueStore[V]) Remove(key string) (bool, error) {
	k, err := s.storageKey(key)
	if err != nil {
		return false, err
	}
	db, err := s.conn.Handle()
	if err != nil {
		return false, err
	}

	var deleted bool
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		deleted = false
		err = db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
			deleted = true
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return deleted, err
	}
	return false, fmt.Errorf("%w: conflict retries exhausted for key %q", apperrors.ErrTransactionAborted, key)
}
