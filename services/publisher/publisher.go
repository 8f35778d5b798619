package publisher

import "mzohaib/bankdealworker/internal/deal"

// Publisher announces freshly inserted offers to downstream consumers
type Publisher interface {
	// PublishOffers publishes one bank's new offers to a stream
	PublishOffers(bank string, offers []deal.Offer) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
