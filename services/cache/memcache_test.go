package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance and is skipped otherwise.
func TestMemcacheBlockCache(t *testing.T) {
	mc := NewMemcacheBlockCache("localhost:11211")

	_, err := mc.client.Get("ping")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	err = mc.Set("scrape_block:UBL", []byte("1"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("scrape_block:UBL")
	assert.NoError(t, err)
	assert.Equal(t, "1", string(value))

	err = mc.Delete("scrape_block:UBL")
	assert.NoError(t, err)

	_, err = mc.Get("scrape_block:UBL")
	assert.Error(t, err)
}
