package reconcile

import (
	"github.com/dgraph-io/badger/v4"
)

// DetailCache memoizes fetched detail documents by location. The reconciler
// consults it before hitting storage so a retried materialization does not
// refetch documents it already has.
type DetailCache interface {
	Get(location string) ([]byte, bool)
	Put(location string, body []byte)
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool) { return nil, false }
func (NopCache) Put(string, []byte)        {}

// BadgerCache keeps detail documents in a badger store under the activity
// scratch dir.
type BadgerCache struct {
	db *badger.DB
}

func OpenBadgerCache(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Get(location string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(location))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

func (c *BadgerCache) Put(location string, body []byte) {
	// Cache writes are best effort; a miss later just refetches.
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(location), body)
	})
}

func (c *BadgerCache) Close() error { return c.db.Close() }
