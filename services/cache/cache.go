// Package cache provides the short-lived block cache used to back off from
// sources that rate limited a previous fetch round.
package cache

import "time"

// Cache abstracts the key/value store behind the scrape block list
type Cache interface {
	// Get retrieves a value by key
	Get(key string) ([]byte, error)

	// Set stores a value with an expiration
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value by key
	Delete(key string) error
}
