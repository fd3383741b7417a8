package messaging

import (
	"context"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// SubjectNotifyRequest carries NotifyRequest messages for the settlement proxy
const SubjectNotifyRequest = "commands.settlement.notify"

// NotifyRequest asks the settlement proxy to settle the transfer at BlockHeight on behalf of Caller
type NotifyRequest struct {
	Caller      domain.Principal `json:"caller"`
	BlockHeight uint64           `json:"block_height"`
}

// Subscriber consumes a subject until its context is done
type Subscriber interface {
	// Run blocks until ctx is canceled or the subscription fails
	Run(ctx context.Context) error
	// Close closes the connection and cleans up resources
	Close()
}
