package alarm

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

// fakeService implements the alarm Service interface for unit testing the transport.
type fakeService struct {
	// state holds the current alarm state managed by the fake service.
	state domain.Status
}

// Command parses value and applies it to the stored state.
func (f *fakeService) Command(_ context.Context, actor *domain.Actor, value string) (*domain.Status, error) {
	cmd, err := domain.ParseCommand(value)
	if err != nil {
		return nil, err
	}

	f.state = domain.Status{
		LastActor: actor.Clone(),
		Armed:     cmd == domain.Arm,
		Output:    domain.Off,
	}

	if f.state.Armed {
		f.state.Output = domain.On
	}

	return f.state.Clone(), nil
}

// GetAlarmState returns the current alarm state stored in the fake service.
func (f *fakeService) GetAlarmState(context.Context) *domain.Status { return f.state.Clone() }

// TestServer_SetAlarm_Validation ensures invalid requests return InvalidArgument errors and change nothing.
func TestServer_SetAlarm_Validation(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	_, err := s.SetAlarm(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetAlarm(context.Background(), wrapperspb.String("yes"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.False(t, svc.state.Armed)
}

// TestServer_ActorFromMetadata verifies the caller identity travels in metadata.
func TestServer_ActorFromMetadata(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	outgoing := WithActor(context.Background(), &domain.Actor{Hostname: "desk", Username: "guard"})
	md, ok := metadata.FromOutgoingContext(outgoing)
	require.True(t, ok)

	incoming := metadata.NewIncomingContext(context.Background(), md)

	response, err := s.SetAlarm(incoming, wrapperspb.String("true"))
	require.NoError(t, err)

	got, err := StatusFromProto(response)
	require.NoError(t, err)
	require.True(t, got.Armed)
	require.Equal(t, domain.On, got.Output)
	require.Equal(t, &domain.Actor{Hostname: "desk", Username: "guard"}, got.LastActor)

	// No metadata, no actor.
	require.Nil(t, actorFromContext(context.Background()))
	require.Equal(t, context.Background(), WithActor(context.Background(), nil))
}

// TestStatusFromProto_Malformed rejects messages without the armed flag.
func TestStatusFromProto_Malformed(t *testing.T) {
	t.Parallel()

	_, err := StatusFromProto(toProtoStatus(nil))
	require.ErrorIs(t, err, errMalformedStatus)

	got, err := StatusFromProto(toProtoStatus(&domain.Status{ElapsedSeconds: 42}))
	require.NoError(t, err)
	require.False(t, got.Armed)
	require.Equal(t, uint32(42), got.ElapsedSeconds)
	require.Nil(t, got.LastActor)
}

// TestAlarmService_Roundtrip exercises the hand-written descriptor and client stub over an in-memory connection.
func TestAlarmService_Roundtrip(t *testing.T) {
	t.Parallel()

	listener := bufconn.Listen(1 << 16)

	grpcServer := grpc.NewServer()
	RegisterAlarmServiceServer(grpcServer, NewServer(new(fakeService)))

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	client := NewAlarmServiceClient(conn)
	ctx := WithActor(context.Background(), &domain.Actor{Hostname: "desk", Username: "guard"})

	response, err := client.SetAlarm(ctx, wrapperspb.String("true"))
	require.NoError(t, err)

	got, err := StatusFromProto(response)
	require.NoError(t, err)
	require.True(t, got.Armed)

	_, err = client.SetAlarm(ctx, wrapperspb.String("TRUE"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	response, err = client.GetStatus(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	got, err = StatusFromProto(response)
	require.NoError(t, err)
	require.True(t, got.Armed)
	require.Equal(t, "guard@desk", got.LastActor.String())
}
