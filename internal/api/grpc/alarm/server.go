package alarm

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Command(ctx context.Context, actor *domain.Actor, value string) (*domain.Status, error)
	GetAlarmState(ctx context.Context) *domain.Status
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// SetAlarm arms or disarms the alarm. Unknown values change nothing.
func (s *Server) SetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	state, err := s.service.Command(ctx, actorFromContext(ctx), req.GetValue())
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCommand) {
			return nil, status.Errorf(codes.InvalidArgument, "unknown 'alarm' value %q, nothing changed", req.GetValue())
		}

		return nil, status.Error(codes.Internal, "unable to change alarm state")
	}

	return toProtoStatus(state), nil
}

// GetStatus returns the current alarm status.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toProtoStatus(s.service.GetAlarmState(ctx)), nil
}

var _ AlarmServiceServer = (*Server)(nil)
