// Package message holds the domain model and rules for outbound SMS
// kept in the outbox until Exotel accepts them.
package message

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxBodyLength is the longest body Exotel accepts for a single send.
	MaxBodyLength = 2000

	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// ParseStatus accepts a status in any case. Empty input yields "".
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case "", StatusPending, StatusSent, StatusFailed:
		return st, nil
	}
	return "", ErrUnknownStatus
}

var (
	// ErrEmptySender is returned when neither the caller nor config names a sender.
	ErrEmptySender = errors.New("sender (from) is required")
	// ErrEmptyRecipient is returned when no recipient phone number is provided.
	ErrEmptyRecipient = errors.New("recipient phone number is required")
	// ErrEmptyBody is returned when the message body is empty.
	ErrEmptyBody = errors.New("message body is required")
	// ErrBodyTooLong is returned when the body exceeds MaxBodyLength.
	ErrBodyTooLong = errors.New("message body exceeds maximum length")
	// ErrInvalidPriority is returned for anything but normal or high.
	ErrInvalidPriority = errors.New("priority must be normal or high")
	// ErrUnknownStatus is returned by ParseStatus.
	ErrUnknownStatus = errors.New("unknown message status")
	// ErrNotFound is returned by repositories when no message matches.
	ErrNotFound = errors.New("message not found")
)

// Message is an outbox entry: one SMS waiting for, or done with, Exotel.
type Message struct {
	ID       uuid.UUID
	From     string
	To       string
	Body     string
	Priority string
	Status   Status

	// Filled from the SMSMessage object once Exotel accepts the send.
	SID            string
	ProviderStatus string
	RawResponse    string

	Attempts  int
	LastError string

	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMessage constructs a pending Message and enforces the domain rules.
func NewMessage(from, to, body, priority string) (*Message, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	body = strings.TrimSpace(body)
	priority = strings.ToLower(strings.TrimSpace(priority))

	if from == "" {
		return nil, ErrEmptySender
	}
	if to == "" {
		return nil, ErrEmptyRecipient
	}
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len([]rune(body)) > MaxBodyLength {
		return nil, ErrBodyTooLong
	}

	switch priority {
	case "":
		priority = PriorityNormal
	case PriorityNormal, PriorityHigh:
	default:
		return nil, ErrInvalidPriority
	}

	now := time.Now()
	return &Message{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Body:      body,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSent records that Exotel accepted the message.
func (m *Message) MarkSent(sid, providerStatus, raw string) {
	now := time.Now()
	m.Attempts++
	m.SentAt = &now
	m.UpdatedAt = now
	m.Status = StatusSent
	m.SID = sid
	m.ProviderStatus = providerStatus
	m.RawResponse = raw
	m.LastError = ""
}

// MarkFailed is terminal: Exotel rejected the message.
func (m *Message) MarkFailed(reason string) {
	m.Attempts++
	m.UpdatedAt = time.Now()
	m.Status = StatusFailed
	m.LastError = reason
}

// MarkRetry keeps the message pending after a throttled or transient attempt.
func (m *Message) MarkRetry(reason string) {
	m.Attempts++
	m.UpdatedAt = time.Now()
	m.Status = StatusPending
	m.LastError = reason
}
