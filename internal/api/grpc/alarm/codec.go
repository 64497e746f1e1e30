package alarm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

const (
	// actorHostnameKey carries the caller hostname in request metadata.
	actorHostnameKey = "x-alarm-actor-hostname"
	// actorUsernameKey carries the caller username in request metadata.
	actorUsernameKey = "x-alarm-actor-username"

	fieldArmed          = "armed"
	fieldOutput         = "output"
	fieldElapsedSeconds = "elapsed_seconds"
	fieldLastActor      = "last_actor"
	fieldHostname       = "hostname"
	fieldUsername       = "username"
)

// errMalformedStatus is returned when a status message lacks required fields.
var errMalformedStatus = errors.New("malformed alarm status")

// WithActor returns an outgoing context announcing actor to the server.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		actorHostnameKey, actor.Hostname,
		actorUsernameKey, actor.Username,
	)
}

// actorFromContext extracts the caller announced in incoming metadata.
func actorFromContext(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	hostnames := md.Get(actorHostnameKey)
	if len(hostnames) == 0 || hostnames[0] == "" {
		return nil
	}

	actor := &domain.Actor{
		Hostname: hostnames[0],
	}

	if usernames := md.Get(actorUsernameKey); len(usernames) > 0 {
		actor.Username = usernames[0]
	}

	return actor
}

// toProtoStatus converts a domain status to its wire form.
func toProtoStatus(status *domain.Status) *structpb.Struct {
	if status == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}

	lastActor := structpb.NewNullValue()
	if status.LastActor != nil {
		lastActor = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldHostname: structpb.NewStringValue(status.LastActor.Hostname),
				fieldUsername: structpb.NewStringValue(status.LastActor.Username),
			},
		})
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldArmed:          structpb.NewBoolValue(status.Armed),
			fieldOutput:         structpb.NewStringValue(status.Output.String()),
			fieldElapsedSeconds: structpb.NewNumberValue(float64(status.ElapsedSeconds)),
			fieldLastActor:      lastActor,
		},
	}
}

// StatusFromProto converts the wire form back into a domain status.
func StatusFromProto(message *structpb.Struct) (*domain.Status, error) {
	fields := message.GetFields()

	armed, ok := fields[fieldArmed]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", errMalformedStatus, fieldArmed)
	}

	status := &domain.Status{
		Armed:          armed.GetBoolValue(),
		ElapsedSeconds: uint32(fields[fieldElapsedSeconds].GetNumberValue()),
	}

	if fields[fieldOutput].GetStringValue() == domain.On.String() {
		status.Output = domain.On
	}

	if actor := fields[fieldLastActor].GetStructValue(); actor != nil {
		status.LastActor = &domain.Actor{
			Hostname: actor.GetFields()[fieldHostname].GetStringValue(),
			Username: actor.GetFields()[fieldUsername].GetStringValue(),
		}
	}

	return status, nil
}
