// Package dedupe remembers recently seen touch batch ids so retried
// deliveries are acknowledged without being applied twice.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 4096

// Deduper records seen batch ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a batch that was rejected (for example on
	// backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps the most recent maxSize ids. Lookups do not refresh
// an id, so the oldest recorded id is evicted first.
type inMemoryDeduper struct {
	seen *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a bounded deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	cfg := options{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := lru.New[string, struct{}](cfg.maxSize)
	if err != nil {
		// Only returned for a non-positive size, which options rule out.
		panic(err)
	}
	return &inMemoryDeduper{seen: cache}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	seen, _ := d.seen.ContainsOrAdd(id, struct{}{})
	return seen
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.seen.Remove(id)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.seen.Len())
}
