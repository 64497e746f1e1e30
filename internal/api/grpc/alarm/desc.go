package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarm.v1.AlarmService"

	// SetAlarmMethod is the full method name of SetAlarm.
	SetAlarmMethod = "/" + ServiceName + "/SetAlarm"
	// GetStatusMethod is the full method name of GetStatus.
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	// SetAlarm applies the "true"/"false" command and returns the new status.
	SetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetStatus returns the current status.
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// AlarmServiceClient is the client API of the alarm service.
type AlarmServiceClient interface {
	SetAlarm(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// alarmServiceClient invokes the service over a client connection.
type alarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient creates a client stub on top of cc.
//
//nolint:ireturn // Mirrors the shape of protoc-gen-go-grpc stubs.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) AlarmServiceClient {
	return &alarmServiceClient{cc: cc}
}

// SetAlarm calls AlarmService.SetAlarm.
func (c *alarmServiceClient) SetAlarm(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SetAlarmMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetStatus calls AlarmService.GetStatus.
func (c *alarmServiceClient) GetStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// RegisterAlarmServiceServer registers srv with the gRPC service registrar.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetAlarm",
			Handler:    setAlarmHandler,
		},
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarm/v1/alarm.proto",
}

func setAlarmHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is dictated by grpc.MethodDesc.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlarmServiceServer).SetAlarm(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SetAlarmMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlarmServiceServer).SetAlarm(ctx, req.(*wrapperspb.StringValue)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}

func getStatusHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is dictated by grpc.MethodDesc.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlarmServiceServer).GetStatus(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStatusMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlarmServiceServer).GetStatus(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}
