package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	postKeyPrefix   = "post:%d"
	threadKeyPrefix = "post:%d:thread"
)

const (
	// PostTTL bounds staleness of cached post lookups.
	PostTTL = 5 * time.Minute
	// ThreadTTL is short: the cached thread serves anonymous readers only and
	// is invalidated on every comment or like mutation anyway.
	ThreadTTL = 60 * time.Second
)

// PostKey returns the cache key of a post row.
func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

// ThreadKey returns the cache key of a post's assembled (pre-sort) comment thread.
func ThreadKey(postID uint) string {
	return fmt.Sprintf(threadKeyPrefix, postID)
}

// InvalidatePost drops the cached post and its thread.
func (c *Cache) InvalidatePost(ctx context.Context, postID uint) {
	c.Invalidate(ctx, PostKey(postID), ThreadKey(postID))
}

// InvalidateThread drops the cached thread of a post.
func (c *Cache) InvalidateThread(ctx context.Context, postID uint) {
	c.Invalidate(ctx, ThreadKey(postID))
}
