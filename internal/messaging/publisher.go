package messaging

import (
	"context"

	"github.com/giftvault/escrow-indexer/internal/domain"
)

// Publisher defines the interface for publishing mapping events to the
// message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishMappingEvent publishes a reconciliation notification
	PublishMappingEvent(ctx context.Context, event *domain.MappingEvent) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
