// Package storage implements the polymorphic storage backend contract:
// a local no-op variant that serves straight off disk, and a remote S3
// variant that mirrors uploads/deletes into an object store.
//
// Exactly two variants exist today, so a small interface plus two
// concrete types is preferred over a provider registry.
package storage

import "context"

// Backend is the storage contract every variant implements.
type Backend interface {
	// Upload streams localPath's content to the backend under key.
	// The local variant is a no-op that just returns the generated URL.
	Upload(ctx context.Context, localPath, key string) (url string, err error)
	// Delete removes the object at key. Idempotent: deleting an absent
	// key is success, not an error.
	Delete(ctx context.Context, key string) error
	// URLFor returns the public URL for key without performing I/O.
	URLFor(key string) string
	// IsRemote reports whether Upload/Delete perform real network I/O;
	// the rescan orchestrator uses this to decide whether a diff's
	// upload/delete step needs to run at all.
	IsRemote() bool
}

// Key builds the object-store / URL key for a namespace-relative,
// category-prefixed path: "{namespace}/{category_prefixed_relative_path}".
func Key(namespace, categoryPrefixedRelPath string) string {
	return namespace + "/" + categoryPrefixedRelPath
}
