package messagegorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageModel is the GORM persistence model for outbox messages.
// It maps directly to the "sms_outbox" table in Postgres.
type MessageModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	From           string     `gorm:"column:from_number;size:32;not null"`
	To             string     `gorm:"column:to_number;size:32;not null"`
	Body           string     `gorm:"type:text;not null"`
	Priority       string     `gorm:"size:10;not null;default:normal"`
	Status         string     `gorm:"size:20;not null;index:idx_outbox_status_created,priority:1"`
	SID            string     `gorm:"column:sid;size:64;index"`
	ProviderStatus string     `gorm:"size:32"`
	RawResponse    string     `gorm:"type:text"`
	Attempts       int        `gorm:"not null;default:0"`
	LastError      string     `gorm:"type:text"`
	SentAt         *time.Time `gorm:"index"`
	ClaimedUntil   *time.Time `gorm:"index"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the default table name used by GORM.
func (MessageModel) TableName() string {
	return "sms_outbox"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *MessageModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
