package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	domain "github.com/oggyb/exotel-gateway/internal/domain/message"
	"github.com/oggyb/exotel-gateway/internal/response"
	routes "github.com/oggyb/exotel-gateway/internal/router"
	"github.com/oggyb/exotel-gateway/internal/service"
	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallService struct {
	calls   int
	lastReq exotel.CallRequest
	err     error
}

func (f *fakeCallService) ConnectNumbers(_ context.Context, req exotel.CallRequest) (exotel.Resource, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": "call-1", "Status": "in-progress"}, nil
}

func (f *fakeCallService) ConnectToFlow(_ context.Context, req exotel.FlowRequest) (exotel.Resource, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": "flow-" + req.AppID}, nil
}

func (f *fakeCallService) CallDetails(_ context.Context, sid string) (exotel.Resource, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": sid}, nil
}

type fakeMessageService struct {
	stored *domain.Message
	err    error
}

func (f *fakeMessageService) Enqueue(_ context.Context, in service.EnqueueInput) (*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, err := domain.NewMessage(in.From, in.To, in.Body, in.Priority)
	if err != nil {
		return nil, err
	}
	f.stored = m
	return m, nil
}

func (f *fakeMessageService) Get(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	if f.stored == nil || f.stored.ID != id {
		return nil, domain.ErrNotFound
	}
	return f.stored, nil
}

func (f *fakeMessageService) List(_ context.Context, _ domain.Status, _, _ int) ([]*domain.Message, int64, error) {
	if f.stored == nil {
		return nil, 0, nil
	}
	return []*domain.Message{f.stored}, 1, nil
}

func (f *fakeMessageService) SMSDetails(_ context.Context, sid string) (exotel.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": sid, "Status": "sent"}, nil
}

func (f *fakeMessageService) ProcessBatch(context.Context) error { return nil }

type fakeScheduler struct {
	running bool
	err     error
}

func (s *fakeScheduler) Start() error {
	if s.err != nil {
		return s.err
	}
	s.running = true
	return nil
}

func (s *fakeScheduler) Stop() error {
	s.running = false
	return nil
}

func (s *fakeScheduler) IsRunning() bool { return s.running }

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

func newRouter(calls *fakeCallService, msgs *fakeMessageService, sch *fakeScheduler) http.Handler {
	r := chi.NewRouter()
	routes.Register(r, routes.AppDeps{
		Home:    NewHomeHandler(),
		Message: NewMessageHandler(msgs, sch),
		Call:    NewCallHandler(calls),
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &exotel.ValidationError{Op: exotel.OpCallNumber}, http.StatusBadRequest},
		{"rate limited", fmt.Errorf("exotel: call_number: %w", exotel.ErrRateLimitExceeded), http.StatusTooManyRequests},
		{"provider rejection", &exotel.ProviderError{Op: exotel.OpSendSMS, StatusCode: 400, Message: "Invalid Number"}, http.StatusBadGateway},
		{"provider not found", &exotel.ProviderError{Op: exotel.OpCallDetails, StatusCode: 404, Message: "Not Found"}, http.StatusNotFound},
		{"outbox not found", domain.ErrNotFound, http.StatusNotFound},
		{"deadline", fmt.Errorf("exotel: sms_details: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"domain validation", domain.ErrEmptyBody, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := statusFor(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFor_HidesInternalErrors(t *testing.T) {
	_, msg := statusFor(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal error", msg)
}

func TestConnectNumbers_OK(t *testing.T) {
	calls := &fakeCallService{}
	h := newRouter(calls, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodPost, "/calls/connect", `{"from":"0001","to":"0002","callerId":"0003"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var payload response.ResourcePayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "call", payload.Kind)
	assert.Equal(t, "call-1", payload.Resource["Sid"])
	assert.Equal(t, exotel.CallRequest{From: "0001", To: "0002", CallerID: "0003"}, calls.lastReq)
}

func TestConnectNumbers_InvalidBodyNeverCallsProvider(t *testing.T) {
	calls := &fakeCallService{}
	h := newRouter(calls, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodPost, "/calls/connect", `{"from":"0001"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Zero(t, calls.calls)
}

func TestConnectNumbers_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name: "rate limited",
			err:  fmt.Errorf("exotel: call_number: %w", exotel.ErrRateLimitExceeded),
			code: http.StatusTooManyRequests,
		},
		{
			name:    "rejected",
			err:     &exotel.ProviderError{Op: exotel.OpCallNumber, StatusCode: 400, Message: "Invalid Number"},
			code:    http.StatusBadGateway,
			message: "Invalid Number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&fakeCallService{err: tt.err}, &fakeMessageService{}, &fakeScheduler{})

			rec, env := do(t, h, http.MethodPost, "/calls/connect", `{"from":"0001","to":"0002"}`)
			assert.Equal(t, tt.code, rec.Code)
			require.NotNil(t, env.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}
}

func TestConnectToFlow_And_CallDetails(t *testing.T) {
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodPost, "/calls/flow", `{"to":"0002","appId":"42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"flow-42"`)

	rec, env = do(t, h, http.MethodGet, "/calls/abc123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"abc123"`)
}

func TestSendAndGetMessage(t *testing.T) {
	msgs := &fakeMessageService{}
	h := newRouter(&fakeCallService{}, msgs, &fakeScheduler{})

	rec, env := do(t, h, http.MethodPost, "/messages", `{"from":"EXO","to":"0002","body":"hi"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var dto response.MessageDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, "PENDING", dto.Status)
	assert.Equal(t, "normal", dto.Priority)

	rec, env = do(t, h, http.MethodGet, "/messages/"+dto.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), dto.ID)

	rec, _ = do(t, h, http.MethodGet, "/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/messages/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage_DomainRejection(t *testing.T) {
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, &fakeScheduler{})

	// No sender in the request and none configured in the fake.
	rec, env := do(t, h, http.MethodPost, "/messages", `{"to":"0002","body":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrEmptySender.Error(), env.Error.Message)
}

func TestListMessages(t *testing.T) {
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodGet, "/messages?status=sent&page=2&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.MessagesPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, 2, payload.Page)
	assert.Equal(t, 20, payload.Limit)

	rec, _ = do(t, h, http.MethodGet, "/messages?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSMSDetails(t *testing.T) {
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodGet, "/sms/sid-9", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.ResourcePayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "sms", payload.Kind)
	assert.Equal(t, "sid-9", payload.Resource["Sid"])

	notFound := &exotel.ProviderError{Op: exotel.OpSMSDetails, StatusCode: 404, Message: "Not Found"}
	h = newRouter(&fakeCallService{}, &fakeMessageService{err: notFound}, &fakeScheduler{})
	rec, _ = do(t, h, http.MethodGet, "/sms/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartStopScheduler(t *testing.T) {
	sch := &fakeScheduler{}
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, sch)

	rec, env := do(t, h, http.MethodPost, "/scheduler", `{"action":"start"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"running":true`)

	rec, env = do(t, h, http.MethodPost, "/scheduler", `{"action":"stop"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"running":false`)

	rec, _ = do(t, h, http.MethodPost, "/scheduler", `{"action":"pause"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sch.err = errors.New("scheduler: control loop not responding")
	rec, _ = do(t, h, http.MethodPost, "/scheduler", `{"action":"start"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newRouter(&fakeCallService{}, &fakeMessageService{}, &fakeScheduler{})

	rec, env := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodDelete, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
