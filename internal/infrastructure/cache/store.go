package cache

import (
	"context"
	"time"
)

// Store 以 key 讀寫位元組資料的快取。
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
