package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// CommentsClient — клиентская сторона контракта.
type CommentsClient interface {
	CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CreateCommentResponse, error)
	ToggleStar(ctx context.Context, in *ToggleStarRequest, opts ...grpc.CallOption) (*ToggleStarResponse, error)
	ListComments(ctx context.Context, in *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error)
	CountComments(ctx context.Context, in *CountCommentsRequest, opts ...grpc.CallOption) (*CountCommentsResponse, error)
	ReportComment(ctx context.Context, in *ReportCommentRequest, opts ...grpc.CallOption) (*ReportCommentResponse, error)
	SetModeration(ctx context.Context, in *SetModerationRequest, opts ...grpc.CallOption) (*SetModerationResponse, error)
}

type commentsClient struct {
	cc grpc.ClientConnInterface
}

// NewCommentsClient оборачивает соединение. Все вызовы идут с content-subtype json.
func NewCommentsClient(cc grpc.ClientConnInterface) CommentsClient {
	return &commentsClient{cc: cc}
}

// Dial открывает незашифрованное соединение с сервисом (внутренняя сеть, CLI).
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	return grpc.NewClient(addr, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *commentsClient) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CreateCommentResponse, error) {
	return invoke[CreateCommentResponse](ctx, c.cc, "CreateComment", in, opts)
}

func (c *commentsClient) ToggleStar(ctx context.Context, in *ToggleStarRequest, opts ...grpc.CallOption) (*ToggleStarResponse, error) {
	return invoke[ToggleStarResponse](ctx, c.cc, "ToggleStar", in, opts)
}

func (c *commentsClient) ListComments(ctx context.Context, in *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error) {
	return invoke[ListCommentsResponse](ctx, c.cc, "ListComments", in, opts)
}

func (c *commentsClient) CountComments(ctx context.Context, in *CountCommentsRequest, opts ...grpc.CallOption) (*CountCommentsResponse, error) {
	return invoke[CountCommentsResponse](ctx, c.cc, "CountComments", in, opts)
}

func (c *commentsClient) ReportComment(ctx context.Context, in *ReportCommentRequest, opts ...grpc.CallOption) (*ReportCommentResponse, error) {
	return invoke[ReportCommentResponse](ctx, c.cc, "ReportComment", in, opts)
}

func (c *commentsClient) SetModeration(ctx context.Context, in *SetModerationRequest, opts ...grpc.CallOption) (*SetModerationResponse, error) {
	return invoke[SetModerationResponse](ctx, c.cc, "SetModeration", in, opts)
}
