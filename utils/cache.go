package utils

import (
	"context"
	"encoding/json"
	"time"
)

const defaultCacheTTL = time.Hour

// Cache key prefixes. Writers invalidate by prefix so readers can key by any
// combination of page/size/filter below them.
const (
	CachePrefixPostList = "cache:posts:list:"
	CachePrefixPopular  = "cache:posts:popular:"
	CacheKeyCategories  = "cache:categories:active"
)

// CacheGetBytes returns cached bytes for a key from Redis. Redis being
// unavailable reads as a miss.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// CacheSetJSON marshals v and stores it under key with the given TTL.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

// InvalidateByPrefix deletes keys matching the prefix using SCAN; bounded
// rounds keep a huge keyspace from stalling the request path.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ {
		keys, cur, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			break
		}
	}
}

// InvalidatePostCaches drops every cached listing that a post write can
// affect: the public list, popular posts, and (via category hiding rules)
// the active category list is left alone.
func InvalidatePostCaches() {
	InvalidateByPrefix(CachePrefixPostList)
	InvalidateByPrefix(CachePrefixPopular)
}

// InvalidateCategoryCache drops the cached active category list.
func InvalidateCategoryCache() {
	InvalidateByPrefix(CacheKeyCategories)
}
