package cache

import "fmt"

type Prefix string

const (
	// SentMessages maps an SMS SID to the time the outbox handed it to Exotel.
	SentMessages Prefix = "sent_messages"
	// SMSDetails holds the last SMSMessage object fetched for a SID.
	SMSDetails Prefix = "sms_details"
)

func (p Prefix) Key(id string) string {
	return fmt.Sprintf("%s:%s", p, id)
}
