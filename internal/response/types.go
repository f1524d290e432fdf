package response

import (
	"time"

	domain "github.com/oggyb/exotel-gateway/internal/domain/message"
)

type WelcomePayload struct {
	Message string `json:"message"`
}

type HealthPayload struct {
	Status string `json:"status"`
}

type SchedulerControlPayload struct {
	Message string `json:"message"`
	Running bool   `json:"running"`
}

// ResourcePayload wraps a Call or SMSMessage object exactly as Exotel sent it.
type ResourcePayload struct {
	Kind     string         `json:"kind"` // "call" or "sms"
	Resource map[string]any `json:"resource"`
}

// MessageDTO is the public view of an outbox message. It decouples the wire
// format from the domain entity and plays nicely with Swagger.
type MessageDTO struct {
	ID             string     `json:"id"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	Body           string     `json:"body"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	SID            string     `json:"sid,omitempty"`
	ProviderStatus string     `json:"providerStatus,omitempty"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"lastError,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type MessagesPayload struct {
	Items []MessageDTO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// Response shapes referenced by the swagger annotations.

type WelcomeResponse struct {
	Success   bool           `json:"success"`
	Data      WelcomePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type HealthResponse struct {
	Success   bool          `json:"success"`
	Data      HealthPayload `json:"data"`
	Timestamp string        `json:"timestamp"`
}

type SchedulerControlResponse struct {
	Success   bool                    `json:"success"`
	Data      SchedulerControlPayload `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

type ResourceResponse struct {
	Success   bool            `json:"success"`
	Data      ResourcePayload `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type MessageResponse struct {
	Success   bool       `json:"success"`
	Data      MessageDTO `json:"data"`
	Timestamp string     `json:"timestamp"`
}

type MessagesResponse struct {
	Success   bool            `json:"success"`
	Data      MessagesPayload `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

// FromDomainMessage converts one outbox message to its DTO.
func FromDomainMessage(m *domain.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID.String(),
		From:           m.From,
		To:             m.To,
		Body:           m.Body,
		Priority:       m.Priority,
		Status:         string(m.Status),
		SID:            m.SID,
		ProviderStatus: m.ProviderStatus,
		Attempts:       m.Attempts,
		LastError:      m.LastError,
		SentAt:         m.SentAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomainMessages converts outbox messages into DTOs.
func FromDomainMessages(msgs []*domain.Message) []MessageDTO {
	out := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = FromDomainMessage(m)
	}
	return out
}
