package message

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(" EXO ", " 0002 ", "  hello ", "")
	require.NoError(t, err)

	assert.Equal(t, "EXO", m.From)
	assert.Equal(t, "0002", m.To)
	assert.Equal(t, "hello", m.Body)
	assert.Equal(t, PriorityNormal, m.Priority)
	assert.Equal(t, StatusPending, m.Status)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestNewMessage_Rules(t *testing.T) {
	cases := []struct {
		name                     string
		from, to, body, priority string
		want                     error
	}{
		{"no sender", "", "2", "b", "", ErrEmptySender},
		{"no recipient", "1", " ", "b", "", ErrEmptyRecipient},
		{"no body", "1", "2", "", "", ErrEmptyBody},
		{"too long", "1", "2", strings.Repeat("x", MaxBodyLength+1), "", ErrBodyTooLong},
		{"bad priority", "1", "2", "b", "urgent", ErrInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMessage(tc.from, tc.to, tc.body, tc.priority)
			require.ErrorIs(t, err, tc.want)
		})
	}

	m, err := NewMessage("1", "2", "b", "HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, m.Priority)
}

func TestMessage_Transitions(t *testing.T) {
	m, err := NewMessage("1", "2", "b", "")
	require.NoError(t, err)

	m.MarkRetry("rate limited")
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, 1, m.Attempts)
	assert.Equal(t, "rate limited", m.LastError)

	m.MarkSent("sid-1", "queued", `{"Sid":"sid-1"}`)
	assert.Equal(t, StatusSent, m.Status)
	assert.Equal(t, 2, m.Attempts)
	assert.Equal(t, "sid-1", m.SID)
	assert.Empty(t, m.LastError)
	require.NotNil(t, m.SentAt)

	other, _ := NewMessage("1", "2", "b", "")
	other.MarkFailed("Invalid Number")
	assert.Equal(t, StatusFailed, other.Status)
	assert.Equal(t, "Invalid Number", other.LastError)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("sent")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, st)

	st, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, Status(""), st)

	_, err = ParseStatus("delivered")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
