package service

import (
	"context"
	"testing"

	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalls struct {
	lastCall exotel.CallRequest
	lastFlow exotel.FlowRequest
	err      error
}

func (f *fakeCalls) ConnectNumbers(_ context.Context, req exotel.CallRequest) (exotel.Resource, error) {
	f.lastCall = req
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": "call-1", "Status": "in-progress"}, nil
}

func (f *fakeCalls) ConnectToFlow(_ context.Context, req exotel.FlowRequest) (exotel.Resource, error) {
	f.lastFlow = req
	if f.err != nil {
		return nil, f.err
	}
	return exotel.Resource{"Sid": "call-2"}, nil
}

func (f *fakeCalls) CallDetails(_ context.Context, sid string) (exotel.Resource, error) {
	return exotel.Resource{"Sid": sid}, f.err
}

func TestCallService_DefaultCallerID(t *testing.T) {
	provider := &fakeCalls{}
	svc := NewCallService(provider, "0800", nil)

	res, err := svc.ConnectNumbers(context.Background(), exotel.CallRequest{From: "1", To: "2"})
	require.NoError(t, err)
	assert.Equal(t, "call-1", res.Sid())
	assert.Equal(t, "0800", provider.lastCall.CallerID)

	_, err = svc.ConnectToFlow(context.Background(), exotel.FlowRequest{To: "2", AppID: "42", CallerID: "0900"})
	require.NoError(t, err)
	assert.Equal(t, "0900", provider.lastFlow.CallerID)
}

func TestCallService_PassesErrorsThrough(t *testing.T) {
	provider := &fakeCalls{err: &exotel.ValidationError{Op: exotel.OpCallNumber}}
	svc := NewCallService(provider, "", nil)

	_, err := svc.ConnectNumbers(context.Background(), exotel.CallRequest{})
	require.ErrorIs(t, err, exotel.ErrInsufficientParameters)

	res, err := NewCallService(&fakeCalls{}, "", nil).CallDetails(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Sid())
}
