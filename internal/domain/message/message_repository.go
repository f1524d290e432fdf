package message

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for outbox messages.
//
// It is implemented by infrastructure layers (e.g. GORM) while the domain
// and service layers depend only on this interface.
type Repository interface {
	// Save persists a new message.
	Save(ctx context.Context, m *Message) error

	// GetByID returns ErrNotFound when no message has the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)

	// GetPending returns up to limit messages still waiting to be sent, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Message, error)

	// List returns a page of messages, optionally filtered by status ("" = all),
	// along with the total number of matching records.
	List(ctx context.Context, status Status, page, limit int) ([]*Message, int64, error)

	// UpdateStatus persists the status and provider metadata of an existing message.
	UpdateStatus(ctx context.Context, m *Message) error
}
