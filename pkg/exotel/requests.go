package exotel

import (
	"net/url"
	"strings"
)

// SMS priorities accepted by Sms/send.json.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// CallRequest connects From to To. From is dialled first; once it picks up,
// To is dialled. CallerID is shown to both legs.
//
// Optional fields left empty are still sent, as empty values.
type CallRequest struct {
	From     string
	To       string
	CallerID string

	TimeLimit      string // seconds
	TimeOut        string // seconds
	StatusCallback string
}

// FlowRequest dials To and, on pickup, hands the call to the flow (app) AppID.
type FlowRequest struct {
	To       string
	AppID    string
	CallerID string

	TimeLimit      string
	TimeOut        string
	StatusCallback string
	CustomField    string
}

// SMSRequest sends Body from From to To. Priority defaults to PriorityNormal.
type SMSRequest struct {
	From     string
	To       string
	Body     string
	Priority string

	StatusCallback string
}

// field is a single form key/value.
type field struct {
	key   string
	value string
}

// form keeps insertion order so the wire body is stable, unlike url.Values.
type form []field

func (f form) encode() string {
	var b strings.Builder
	for i, kv := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}

func anyEmpty(vals ...string) bool {
	for _, v := range vals {
		if v == "" {
			return true
		}
	}
	return false
}

func (r CallRequest) form() form {
	return form{
		{"From", r.From},
		{"To", r.To},
		{"CallerId", r.CallerID},
		{"TimeLimit", r.TimeLimit},
		{"TimeOut", r.TimeOut},
		{"StatusCallback", r.StatusCallback},
	}
}

func (r FlowRequest) form(flowHost string) form {
	return form{
		{"From", r.To},
		{"Url", flowURL(flowHost, r.AppID)},
		{"CallerId", r.CallerID},
		{"TimeLimit", r.TimeLimit},
		{"TimeOut", r.TimeOut},
		{"StatusCallback", r.StatusCallback},
		{"CustomField", r.CustomField},
	}
}

func (r SMSRequest) form() form {
	priority := r.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return form{
		{"From", r.From},
		{"To", r.To},
		{"Body", r.Body},
		{"Priority", priority},
		{"StatusCallback", r.StatusCallback},
	}
}

func flowURL(host, appID string) string {
	return "http://" + host + "/exoml/start/" + appID
}
