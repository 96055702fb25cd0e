package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophdiary.DiaryService"

// Method names of ServiceName.
const (
	MethodSignup          = "Signup"
	MethodLogin           = "Login"
	MethodLogout          = "Logout"
	MethodSetPrompt       = "SetPrompt"
	MethodGetPrompt       = "GetPrompt"
	MethodCreateDiary     = "CreateDiary"
	MethodListDiaries     = "ListDiaries"
	MethodGetDiary        = "GetDiary"
	MethodUpdateTitle     = "UpdateTitle"
	MethodUpdateThumbnail = "UpdateThumbnail"
	MethodGetVideoURL     = "GetVideoURL"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// DiaryServiceServer is implemented by GRPCServer. Requests and responses
// are google.protobuf.Struct documents with the same fields as the HTTP API.
type DiaryServiceServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPrompt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPrompt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDiary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDiaries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDiary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTitle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateThumbnail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetVideoURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(DiaryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call structCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DiaryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DiaryServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// serviceDesc stands in for protoc output; every message is a Struct.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiaryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodSignup, DiaryServiceServer.Signup),
		unary(MethodLogin, DiaryServiceServer.Login),
		unary(MethodLogout, DiaryServiceServer.Logout),
		unary(MethodSetPrompt, DiaryServiceServer.SetPrompt),
		unary(MethodGetPrompt, DiaryServiceServer.GetPrompt),
		unary(MethodCreateDiary, DiaryServiceServer.CreateDiary),
		unary(MethodListDiaries, DiaryServiceServer.ListDiaries),
		unary(MethodGetDiary, DiaryServiceServer.GetDiary),
		unary(MethodUpdateTitle, DiaryServiceServer.UpdateTitle),
		unary(MethodUpdateThumbnail, DiaryServiceServer.UpdateThumbnail),
		unary(MethodGetVideoURL, DiaryServiceServer.GetVideoURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophdiary.proto",
}

// Client calls ServiceName over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given fields and returns the response fields.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
