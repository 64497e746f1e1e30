// Package alarm implements the gRPC transport for the alarm service.
//
// The AlarmService is described by a hand-written grpc.ServiceDesc over
// protobuf well-known types, so no generated code is required. The package
// adapts domain types to those messages and ships the matching client stub.
package alarm
