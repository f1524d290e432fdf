// Package sms is the outbox's view of an SMS provider: send one message,
// get back the provider's identifier and status.
package sms

import "context"

// Receipt is what the provider returned for an accepted message.
type Receipt struct {
	SID    string
	Status string
	Raw    string // SMSMessage object as JSON
}

// Client is the contract for an SMS provider implementation.
type Client interface {
	Send(ctx context.Context, from, to, body, priority string) (Receipt, error)
}
