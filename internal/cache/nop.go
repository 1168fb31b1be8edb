package cache

import (
	"context"
	"time"
)

// NopCache never stores anything. Every Get misses and rate-limit counters
// always read 1.
type NopCache struct{}

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NopCache) Delete(context.Context, string) error                     { return nil }
func (NopCache) DeletePrefix(context.Context, string) (int64, error)      { return 0, nil }
func (NopCache) Ping(context.Context) error                               { return nil }
func (NopCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}
