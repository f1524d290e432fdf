// Package request holds the JSON bodies the gateway accepts and their
// validation rules.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SchedulerRequest represents the JSON body for scheduler control.
type SchedulerRequest struct {
	// Action controls the scheduler. Allowed values:
	// - "start": start processing batches
	// - "stop":  stop processing batches
	Action string `json:"action" validate:"required,oneof=start stop"`
}

// ConnectNumbersRequest bridges From and To. CallerID may be omitted when the
// gateway has a default caller ID configured.
type ConnectNumbersRequest struct {
	From           string `json:"from" validate:"required"`
	To             string `json:"to" validate:"required"`
	CallerID       string `json:"callerId"`
	TimeLimit      string `json:"timeLimit" validate:"omitempty,numeric"`
	TimeOut        string `json:"timeOut" validate:"omitempty,numeric"`
	StatusCallback string `json:"statusCallback" validate:"omitempty,url"`
}

// ConnectFlowRequest dials To and connects it to flow AppID.
type ConnectFlowRequest struct {
	To             string `json:"to" validate:"required"`
	AppID          string `json:"appId" validate:"required"`
	CallerID       string `json:"callerId"`
	TimeLimit      string `json:"timeLimit" validate:"omitempty,numeric"`
	TimeOut        string `json:"timeOut" validate:"omitempty,numeric"`
	StatusCallback string `json:"statusCallback" validate:"omitempty,url"`
	CustomField    string `json:"customField"`
}

// SendMessageRequest queues an SMS in the outbox.
type SendMessageRequest struct {
	From     string `json:"from"`
	To       string `json:"to" validate:"required"`
	Body     string `json:"body" validate:"required,max=2000"`
	Priority string `json:"priority" validate:"omitempty,oneof=normal high"`
}

// Decode reads one JSON object from r into dst and validates it. The error
// message is safe to return to API clients.
func Decode(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return Validate(dst)
}

// Validate runs the struct tags on v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
