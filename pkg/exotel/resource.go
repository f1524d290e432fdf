package exotel

// Top-level keys of the success envelopes.
const (
	keyCall = "Call"
	keySMS  = "SMSMessage"
)

// Resource is the Call or SMSMessage object exactly as Exotel returned it.
// Numbers are kept as json.Number.
type Resource map[string]any

// Sid returns the resource identifier, or "" if absent.
func (r Resource) Sid() string { return r.str("Sid") }

// Status returns the provider status (e.g. "queued", "in-progress").
func (r Resource) Status() string { return r.str("Status") }

func (r Resource) str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}
