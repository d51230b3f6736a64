/*Package registry provides a persistent local registry of objects

The registry keeps the SDK's durable client-side state, such as the last
registered webhook and presubscription keys, in an embedded badger database.
The package uses JSON to serialize the data.
*/
package registry

import (
	"strings"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Registry provides a persistent registry of objects in a local badger
// database.
type Registry struct {
	db *badger.DB
}

type entry struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// MustOpen opens the registry database at the given directory, creating it
// if necessary. It panics on failure.
func MustOpen(path string) Registry {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		panic(err)
	}
	return Registry{db: db}
}

// MustOpenInMemory opens a registry without disk persistence, good for
// unit tests.
func MustOpenInMemory() Registry {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		panic(err)
	}
	return Registry{db: db}
}

// Close closes the underlying database
func (r Registry) Close() error {
	return r.db.Close()
}

// Accessor is an accessor with optional prefix
type Accessor struct {
	Prefix   string
	Registry Registry
}

// Accessor returns a registry accessor with prefix
func (r Registry) Accessor(prefix string) Accessor {
	return Accessor{
		Prefix:   prefix,
		Registry: r,
	}
}

func (r Accessor) storageKey(key string) []byte {
	if len(r.Prefix) > 0 {
		key = r.Prefix + ":" + key
	}
	return []byte(key)
}

// Read reads a value from the registry. It returns the time when the value
// was written, or a zero timestamp if there is no value.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r Accessor) Read(key string, value interface{}) (time.Time, error) {
	var e entry
	err := r.Registry.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.storageKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err == badger.ErrKeyNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "cannot read key '%s'", key)
	}
	if value != nil {
		if err := json.Unmarshal(e.Value, value); err != nil {
			return time.Time{}, err
		}
	}
	return e.Timestamp, nil
}

// Write writes a value into the registry.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r Accessor) Write(key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry{Value: body, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	err = r.Registry.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.storageKey(key), data)
	})
	return errors.Wrapf(err, "cannot write key '%s'", key)
}

// Delete deletes a value from the registry. Deleting a non-existing key is
// not an error.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r Accessor) Delete(key string) error {
	err := r.Registry.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(r.storageKey(key))
	})
	return errors.Wrapf(err, "cannot delete key '%s'", key)
}

// Keys returns all keys stored under the accessor's prefix, with the prefix
// stripped.
func (r Accessor) Keys() ([]string, error) {
	var keys []string
	prefix := ""
	if len(r.Prefix) > 0 {
		prefix = r.Prefix + ":"
	}
	err := r.Registry.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			keys = append(keys, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot list keys")
	}
	return keys, nil
}
