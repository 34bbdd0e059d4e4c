// Package cache stores analysis results keyed by their inputs.
//
// Terrace analyses are deterministic: the same supertree, data matrix, root
// and analysis modes always give the same count, detection result and
// compressed tree. The pipeline uses this package to skip recomputation.
//
// Three backends are provided:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON entries on disk, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the HTTP server
//
// Keys are built by a [Keyer]; [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"time"
)

// TTLAnalysis is how long analysis results are kept.
const TTLAnalysis = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (hit == false) and not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// AnalysisKeyOpts are the options that change an analysis result.
type AnalysisKeyOpts struct {
	Root  string `json:"root,omitempty"`
	Modes uint8  `json:"modes"`
}

// Keyer builds cache keys.
type Keyer interface {
	// AnalysisKey returns the key for the analysis of the tree and matrix
	// with the given content hashes.
	AnalysisKey(treeHash, matrixHash string, opts AnalysisKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AnalysisKey implements [Keyer].
func (DefaultKeyer) AnalysisKey(treeHash, matrixHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", treeHash, matrixHash, opts)
}
