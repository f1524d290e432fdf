package service

import (
	"context"

	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"go.uber.org/zap"
)

// CallProvider places and looks up calls. *exotel.Client satisfies it.
type CallProvider interface {
	ConnectNumbers(ctx context.Context, req exotel.CallRequest) (exotel.Resource, error)
	ConnectToFlow(ctx context.Context, req exotel.FlowRequest) (exotel.Resource, error)
	CallDetails(ctx context.Context, sid string) (exotel.Resource, error)
}

// CallService places calls synchronously; nothing is queued or stored.
type CallService interface {
	ConnectNumbers(ctx context.Context, req exotel.CallRequest) (exotel.Resource, error)
	ConnectToFlow(ctx context.Context, req exotel.FlowRequest) (exotel.Resource, error)
	CallDetails(ctx context.Context, sid string) (exotel.Resource, error)
}

type callService struct {
	provider        CallProvider
	defaultCallerID string
	log             *zap.Logger
}

// NewCallService fills in defaultCallerID when a request leaves CallerID empty.
func NewCallService(provider CallProvider, defaultCallerID string, log *zap.Logger) CallService {
	if log == nil {
		log = zap.NewNop()
	}
	return &callService{
		provider:        provider,
		defaultCallerID: defaultCallerID,
		log:             log.With(zap.String("component", "calls")),
	}
}

func (s *callService) ConnectNumbers(ctx context.Context, req exotel.CallRequest) (exotel.Resource, error) {
	if req.CallerID == "" {
		req.CallerID = s.defaultCallerID
	}
	res, err := s.provider.ConnectNumbers(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("call placed", zap.String("sid", res.Sid()), zap.String("status", res.Status()))
	return res, nil
}

func (s *callService) ConnectToFlow(ctx context.Context, req exotel.FlowRequest) (exotel.Resource, error) {
	if req.CallerID == "" {
		req.CallerID = s.defaultCallerID
	}
	res, err := s.provider.ConnectToFlow(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("flow call placed",
		zap.String("sid", res.Sid()), zap.String("app_id", req.AppID), zap.String("status", res.Status()))
	return res, nil
}

func (s *callService) CallDetails(ctx context.Context, sid string) (exotel.Resource, error) {
	return s.provider.CallDetails(ctx, sid)
}
