package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName — полное имя сервиса в контракте.
const ServiceName = "exivox.comments.v1.CommentsService"

// CommentsServiceServer — серверная сторона контракта.
type CommentsServiceServer interface {
	CreateComment(context.Context, *CreateCommentRequest) (*CreateCommentResponse, error)
	ToggleStar(context.Context, *ToggleStarRequest) (*ToggleStarResponse, error)
	ListComments(context.Context, *ListCommentsRequest) (*ListCommentsResponse, error)
	CountComments(context.Context, *CountCommentsRequest) (*CountCommentsResponse, error)
	ReportComment(context.Context, *ReportCommentRequest) (*ReportCommentResponse, error)
	SetModeration(context.Context, *SetModerationRequest) (*SetModerationResponse, error)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unaryHandler собирает обработчик метода по образцу сгенерированного кода:
// декодирование запроса и прогон через цепочку интерсепторов.
func unaryHandler[Req, Resp any](name string, call func(CommentsServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(CommentsServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CommentsServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// CommentsServiceDesc — описание сервиса для grpc.Server.
var CommentsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateComment", Handler: unaryHandler("CreateComment", CommentsServiceServer.CreateComment)},
		{MethodName: "ToggleStar", Handler: unaryHandler("ToggleStar", CommentsServiceServer.ToggleStar)},
		{MethodName: "ListComments", Handler: unaryHandler("ListComments", CommentsServiceServer.ListComments)},
		{MethodName: "CountComments", Handler: unaryHandler("CountComments", CommentsServiceServer.CountComments)},
		{MethodName: "ReportComment", Handler: unaryHandler("ReportComment", CommentsServiceServer.ReportComment)},
		{MethodName: "SetModeration", Handler: unaryHandler("SetModeration", CommentsServiceServer.SetModeration)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "exivox/comments/v1/comments.json",
}

// RegisterCommentsServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterCommentsServiceServer(s grpc.ServiceRegistrar, srv CommentsServiceServer) {
	s.RegisterService(&CommentsServiceDesc, srv)
}
