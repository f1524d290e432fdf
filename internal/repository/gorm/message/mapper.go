package messagegorm

import (
	"github.com/oggyb/exotel-gateway/internal/domain/message"
)

func toDomain(m *MessageModel) *message.Message {
	return &message.Message{
		ID:             m.ID,
		From:           m.From,
		To:             m.To,
		Body:           m.Body,
		Priority:       m.Priority,
		Status:         message.Status(m.Status),
		SID:            m.SID,
		ProviderStatus: m.ProviderStatus,
		RawResponse:    m.RawResponse,
		Attempts:       m.Attempts,
		LastError:      m.LastError,
		SentAt:         m.SentAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toDomainMany(models []MessageModel) []*message.Message {
	out := make([]*message.Message, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out
}

func fromDomain(d *message.Message) *MessageModel {
	return &MessageModel{
		ID:             d.ID,
		From:           d.From,
		To:             d.To,
		Body:           d.Body,
		Priority:       d.Priority,
		Status:         string(d.Status),
		SID:            d.SID,
		ProviderStatus: d.ProviderStatus,
		RawResponse:    d.RawResponse,
		Attempts:       d.Attempts,
		LastError:      d.LastError,
		SentAt:         d.SentAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
