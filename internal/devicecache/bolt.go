package devicecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

const bucketName = "device_cache"

// BoltCache is a single-file embedded key/value store. It survives process
// restarts, which makes it the durability floor on a device.
type BoltCache struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the cache file and ensures the bucket exists.
func OpenBolt(path string) (*BoltCache, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt cache %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Close releases the file lock.
func (c *BoltCache) Close() error {
	return c.db.Close()
}

func (c *BoltCache) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid for the life of the transaction.
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (c *BoltCache) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), value)
	})
}

// Delete removes key; deleting a missing key is a no-op.
func (c *BoltCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

// Ping verifies the bucket is readable.
func (c *BoltCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketName)) == nil {
			return errors.New("bolt bucket missing")
		}
		return nil
	})
}
