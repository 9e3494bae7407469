package httpmiddleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("1.2.3.4"), "request %d within capacity", i+1)
	}
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"), "buckets are per IP")
}

func TestTokenBucketRefills(t *testing.T) {
	base := time.Now()
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return base }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	base = base.Add(2 * time.Second)
	assert.True(t, l.allow("a"), "60/min refills one token per second")
}

func TestTokenBucketEvictsIdleEntries(t *testing.T) {
	base := time.Now()
	l := NewSimpleTokenBucket(1, 1)
	l.now = func() time.Time { return base }
	l.lastSweep = base

	l.allow("a")
	l.allow("b")

	base = base.Add(bucketTTL + time.Minute)
	l.allow("c")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.state, 1, "idle buckets dropped on sweep")
	_, ok := l.state["c"]
	assert.True(t, ok)
}
