// Package rpc holds the clinic.v1.ScheduleService contract: messages, the
// service descriptor, a client and the JSON codec both sides use.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "clinic.v1.ScheduleService"

const (
	MethodLogin                  = "/" + ServiceName + "/Login"
	MethodGetAvailability        = "/" + ServiceName + "/GetAvailability"
	MethodBookAppointment        = "/" + ServiceName + "/BookAppointment"
	MethodUpdateAppointment      = "/" + ServiceName + "/UpdateAppointment"
	MethodCancelAppointment      = "/" + ServiceName + "/CancelAppointment"
	MethodListDoctorAppointments = "/" + ServiceName + "/ListDoctorAppointments"
)

type ScheduleServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error)
	UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error)
	ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListDoctorAppointmentsResponse, error)
}

// UnimplementedScheduleServiceServer can be embedded to stay forward compatible.
type UnimplementedScheduleServiceServer struct{}

func (UnimplementedScheduleServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedScheduleServiceServer) GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvailability not implemented")
}
func (UnimplementedScheduleServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BookAppointment not implemented")
}
func (UnimplementedScheduleServiceServer) UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateAppointment not implemented")
}
func (UnimplementedScheduleServiceServer) CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAppointment not implemented")
}
func (UnimplementedScheduleServiceServer) ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListDoctorAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDoctorAppointments not implemented")
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ScheduleService_ServiceDesc, srv)
}

// unary builds a method handler that decodes Req and calls fn through the interceptor chain.
func unary[Req, Resp any](method string, fn func(ScheduleServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(ScheduleServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(ScheduleServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ScheduleService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unary(MethodLogin, ScheduleServiceServer.Login)},
		{MethodName: "GetAvailability", Handler: unary(MethodGetAvailability, ScheduleServiceServer.GetAvailability)},
		{MethodName: "BookAppointment", Handler: unary(MethodBookAppointment, ScheduleServiceServer.BookAppointment)},
		{MethodName: "UpdateAppointment", Handler: unary(MethodUpdateAppointment, ScheduleServiceServer.UpdateAppointment)},
		{MethodName: "CancelAppointment", Handler: unary(MethodCancelAppointment, ScheduleServiceServer.CancelAppointment)},
		{MethodName: "ListDoctorAppointments", Handler: unary(MethodListDoctorAppointments, ScheduleServiceServer.ListDoctorAppointments)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinic/v1/schedule.json",
}

type ScheduleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScheduleServiceClient(cc grpc.ClientConnInterface) *ScheduleServiceClient {
	return &ScheduleServiceClient{cc: cc}
}

func (c *ScheduleServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Codec)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ScheduleServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.invoke(ctx, MethodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error) {
	out := new(GetAvailabilityResponse)
	if err := c.invoke(ctx, MethodGetAvailability, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodBookAppointment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) UpdateAppointment(ctx context.Context, in *UpdateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodUpdateAppointment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error) {
	out := new(CancelAppointmentResponse)
	if err := c.invoke(ctx, MethodCancelAppointment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) ListDoctorAppointments(ctx context.Context, in *ListDoctorAppointmentsRequest, opts ...grpc.CallOption) (*ListDoctorAppointmentsResponse, error) {
	out := new(ListDoctorAppointmentsResponse)
	if err := c.invoke(ctx, MethodListDoctorAppointments, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
