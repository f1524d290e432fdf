package messagegorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/exotel-gateway/internal/db"
	"github.com/oggyb/exotel-gateway/internal/domain/message"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultClaimTTL is how long GetPending hides the rows it hands out.
const DefaultClaimTTL = 5 * time.Minute

// Repository is a GORM-backed implementation of message.Repository.
type Repository struct {
	db       *gorm.DB
	claimTTL time.Duration
}

// Option configures a Repository.
type Option func(*Repository)

// WithClaimTTL sets how long claimed rows stay invisible to other
// dispatchers. It must outlast a batch, or a slow batch can be re-sent.
func WithClaimTTL(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.claimTTL = d
		}
	}
}

// NewRepository constructs an outbox repository using the given DB adapter.
func NewRepository(d db.DB, opts ...Option) *Repository {
	r := &Repository{
		db:       d.Conn().(*gorm.DB),
		claimTTL: DefaultClaimTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate creates or updates the outbox table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&MessageModel{})
}

// Save inserts a new message record.
func (r *Repository) Save(ctx context.Context, msg *message.Message) error {
	return r.db.WithContext(ctx).Create(fromDomain(msg)).Error
}

// GetByID loads a single message.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	var m MessageModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, message.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// GetPending claims up to limit pending messages, oldest first. The rows are
// locked with FOR UPDATE SKIP LOCKED and stamped with claimed_until inside one
// transaction, so another dispatcher skips them until UpdateStatus releases
// them or the claim expires.
func (r *Repository) GetPending(ctx context.Context, limit int) ([]*message.Message, error) {
	var models []MessageModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("status = ?", message.StatusPending).
			Where("(claimed_until IS NULL OR claimed_until < NOW())").
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&models).Error
		if err != nil || len(models) == 0 {
			return err
		}

		ids := make([]uuid.UUID, len(models))
		for i := range models {
			ids[i] = models[i].ID
		}

		return tx.Model(&MessageModel{}).
			Where("id IN ?", ids).
			Update("claimed_until", gorm.Expr("NOW() + ?::interval", r.claimInterval())).Error
	})
	if err != nil {
		return nil, err
	}

	return toDomainMany(models), nil
}

func (r *Repository) claimInterval() string {
	return fmt.Sprintf("%d milliseconds", r.claimTTL.Milliseconds())
}

// List returns a page of messages, newest first, and the total match count.
func (r *Repository) List(ctx context.Context, status message.Status, page, limit int) ([]*message.Message, int64, error) {
	var models []MessageModel
	var total int64

	query := r.db.WithContext(ctx).Model(&MessageModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	return toDomainMany(models), total, nil
}

// UpdateStatus persists the current status and provider metadata of a
// message and releases its claim.
func (r *Repository) UpdateStatus(ctx context.Context, m *message.Message) error {
	updates := map[string]interface{}{
		"status":          string(m.Status),
		"sid":             m.SID,
		"provider_status": m.ProviderStatus,
		"raw_response":    m.RawResponse,
		"attempts":        m.Attempts,
		"last_error":      m.LastError,
		"sent_at":         m.SentAt,
		"claimed_until":   nil,
	}

	res := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", m.ID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return message.ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ message.Repository = (*Repository)(nil)
