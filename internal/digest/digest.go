// SPDX-License-Identifier: MPL-2.0

// Package digest computes content digests for the files that define a
// package. Results are cached by path, size and modification time so that
// repeated loads of an unchanged tree do not reread it.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
)

const (
	// DefaultCacheSize is the number of file digests kept in memory.
	DefaultCacheSize = 4096

	// Prefix tags digests with the algorithm that produced them.
	Prefix = "sha256:"
)

type (
	// Hasher computes and caches file digests. It is safe for concurrent use.
	Hasher struct {
		cache  *lru.Cache[fileKey, buildgraph.Digest]
		hits   atomic.Int64
		misses atomic.Int64
	}

	// Stats reports cache effectiveness.
	Stats struct {
		Hits   int64
		Misses int64
		Len    int
	}

	fileKey struct {
		path  string
		size  int64
		mtime int64
	}
)

// New creates a Hasher caching up to size digests. A non-positive size
// selects DefaultCacheSize.
func New(size int) (*Hasher, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[fileKey, buildgraph.Digest](size)
	if err != nil {
		return nil, fmt.Errorf("create digest cache: %w", err)
	}
	return &Hasher{cache: cache}, nil
}

// File returns the digest of the file at path.
func (h *Hasher) File(path string) (buildgraph.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("digest %s: is a directory", path)
	}

	key := fileKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if d, ok := h.cache.Get(key); ok {
		h.hits.Add(1)
		return d, nil
	}
	h.misses.Add(1)

	d, err := hashFile(path)
	if err != nil {
		return "", err
	}
	h.cache.Add(key, d)
	return d, nil
}

// Fill sets the digest of every entry of set, in place. It stops at the
// first file that cannot be hashed or when ctx is done.
func (h *Hasher) Fill(ctx context.Context, set buildgraph.DigestSet) error {
	for i := range set {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := h.File(set[i].Path)
		if err != nil {
			return err
		}
		set[i].Digest = d
	}
	return nil
}

// Stats returns the cache counters.
func (h *Hasher) Stats() Stats {
	return Stats{Hits: h.hits.Load(), Misses: h.misses.Load(), Len: h.cache.Len()}
}

// Purge drops every cached digest.
func (h *Hasher) Purge() { h.cache.Purge() }

// Bytes returns the digest of data.
func Bytes(data []byte) buildgraph.Digest {
	sum := sha256.Sum256(data)
	return buildgraph.Digest(Prefix + hex.EncodeToString(sum[:]))
}

func hashFile(path string) (buildgraph.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return buildgraph.Digest(Prefix + hex.EncodeToString(sum.Sum(nil))), nil
}
