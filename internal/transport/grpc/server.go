// Реализация gRPC-эндпоинтов CommentsService по контракту exivox.comments.v1.
//
// Маппинг ошибок сервиса в коды gRPC:
//
//	ErrInvalidArgument        -> codes.InvalidArgument
//	ErrNotFound               -> codes.NotFound
//	ErrParentNotFound         -> codes.NotFound
//	ErrMaxDepthExceeded       -> codes.FailedPrecondition
//	ErrConflict               -> codes.Aborted (клиент может повторить)
//	ErrUnavailable            -> codes.Unavailable
//	прочее                    -> codes.Internal
package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/service"
	"github.com/pribylovaa/exivox-comments/pkg/interceptors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// CommentsServer — gRPC-сервер CommentsService.
type CommentsServer struct {
	service *service.Service
}

func NewCommentsServer(svc *service.Service) *CommentsServer {
	return &CommentsServer{service: svc}
}

// CreateComment — создание корня или ответа.
// Автор берётся из запроса; если его нет — из x-user-id, который проставляет шлюз.
func (s *CommentsServer) CreateComment(ctx context.Context, req *CreateCommentRequest) (*CreateCommentResponse, error) {
	const op = "transport/grpc/comments/CreateComment"

	var author models.Author
	if req.Author != nil {
		author = models.Author{
			ID:          strings.TrimSpace(req.Author.ID),
			Username:    req.Author.Username,
			DisplayName: req.Author.DisplayName,
			Avatar:      req.Author.Avatar,
			IsVerified:  req.Author.IsVerified,
		}
	}
	if author.ID == "" {
		author.ID = userIDFromMD(ctx)
	}

	res, err := s.service.CreateComment(ctx, service.CreateCommentInput{
		SubjectKey: req.SubjectKey,
		Author:     author,
		Payload: models.Payload{
			Content:     req.Content,
			IsAnonymous: req.IsAnonymous,
			Attachments: toModelAttachments(req.Attachments),
			ParentID:    req.ParentID,
		},
	})
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &CreateCommentResponse{Comment: toWireComment(*res)}, nil
}

// ToggleStar — переключение звезды.
func (s *CommentsServer) ToggleStar(ctx context.Context, req *ToggleStarRequest) (*ToggleStarResponse, error) {
	const op = "transport/grpc/comments/ToggleStar"

	res, err := s.service.ToggleStar(ctx, req.SubjectKey, req.CommentID)
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &ToggleStarResponse{Comment: toWireComment(*res)}, nil
}

// ListComments — вся ветка (корни отсортированы, ответы в порядке добавления).
func (s *CommentsServer) ListComments(ctx context.Context, req *ListCommentsRequest) (*ListCommentsResponse, error) {
	const op = "transport/grpc/comments/ListComments"

	view, err := s.service.ListComments(ctx, service.ListInput{
		SubjectKey: req.SubjectKey,
		Sort:       req.Sort,
	})
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &ListCommentsResponse{
		Comments: toWireList(view.Comments),
		Sort:     string(view.Sort),
		Total:    int32(view.Total),
	}, nil
}

// CountComments — корни + ответы.
func (s *CommentsServer) CountComments(ctx context.Context, req *CountCommentsRequest) (*CountCommentsResponse, error) {
	const op = "transport/grpc/comments/CountComments"

	n, err := s.service.CountComments(ctx, req.SubjectKey)
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &CountCommentsResponse{Count: int32(n)}, nil
}

// ReportComment — жалоба; комментарий остаётся видимым.
func (s *CommentsServer) ReportComment(ctx context.Context, req *ReportCommentRequest) (*ReportCommentResponse, error) {
	const op = "transport/grpc/comments/ReportComment"

	res, err := s.service.ReportComment(ctx, req.SubjectKey, req.CommentID, req.Reason)
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &ReportCommentResponse{Comment: toWireComment(*res)}, nil
}

// SetModeration — решение модератора.
func (s *CommentsServer) SetModeration(ctx context.Context, req *SetModerationRequest) (*SetModerationResponse, error) {
	const op = "transport/grpc/comments/SetModeration"

	res, err := s.service.SetModeration(ctx, req.SubjectKey, req.CommentID, req.Status, req.Reason)
	if err != nil {
		return nil, toStatus(op, err)
	}

	return &SetModerationResponse{Comment: toWireComment(*res)}, nil
}

func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, service.ErrParentNotFound), errors.Is(err, service.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", op, err)
	case errors.Is(err, service.ErrMaxDepthExceeded):
		return status.Errorf(codes.FailedPrecondition, "%s: %v", op, err)
	case errors.Is(err, service.ErrConflict):
		return status.Errorf(codes.Aborted, "%s: %v", op, err)
	case errors.Is(err, service.ErrUnavailable):
		return status.Errorf(codes.Unavailable, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "internal server error")
	}
}

func userIDFromMD(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if v := md.Get(interceptors.MDUserID); len(v) > 0 {
		return strings.TrimSpace(v[0])
	}

	return ""
}
