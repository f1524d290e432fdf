package sms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oggyb/exotel-gateway/pkg/exotel"
)

// ExotelClient sends outbox messages through Sms/send.json.
type ExotelClient struct {
	api            *exotel.Client
	statusCallback string
}

// NewExotelClient wraps api. statusCallback, if set, is passed on every send.
func NewExotelClient(api *exotel.Client, statusCallback string) *ExotelClient {
	return &ExotelClient{api: api, statusCallback: statusCallback}
}

// Send implements Client. Errors from the exotel package are returned
// unchanged so callers can tell rate limits from rejections.
func (c *ExotelClient) Send(ctx context.Context, from, to, body, priority string) (Receipt, error) {
	res, err := c.api.SendSMS(ctx, exotel.SMSRequest{
		From:           from,
		To:             to,
		Body:           body,
		Priority:       priority,
		StatusCallback: c.statusCallback,
	})
	if err != nil {
		return Receipt{}, err
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode sms receipt: %w", err)
	}

	return Receipt{SID: res.Sid(), Status: res.Status(), Raw: string(raw)}, nil
}

var _ Client = (*ExotelClient)(nil)
