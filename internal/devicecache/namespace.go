package devicecache

import (
	"context"
	"strings"
)

// Cache is the read/write/delete surface shared by every backend.
type Cache interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	inner  Cache
	prefix string
}

// Namespace prefixes every key with prefix so several devices can share one
// backend without seeing each other's entries.
func Namespace(inner Cache, prefix string) Cache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return inner
	}
	return &namespaced{inner: inner, prefix: prefix + ":"}
}

func (n *namespaced) Read(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Read(ctx, n.prefix+key)
}

func (n *namespaced) Write(ctx context.Context, key string, value []byte) error {
	return n.inner.Write(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}
