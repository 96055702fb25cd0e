package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	if _, err := s.users.Register(ctx, stringField(req, "username"), stringField(req, "password")); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return okResponse()
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	token, err := s.users.Login(ctx, stringField(req, "username"), stringField(req, "password"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return structpb.NewStruct(map[string]any{"token": token})
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.Logout(ctx, claims); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return okResponse()
}

func (s *GRPCServer) SetPrompt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetPrompt(ctx, claims.UserID, stringField(req, "prompt")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return okResponse()
}

func (s *GRPCServer) GetPrompt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	prompt, err := s.users.GetPrompt(ctx, claims.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"prompt": prompt})
}

func (s *GRPCServer) CreateDiary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.diaries.Create(ctx, claims.UserID, stringField(req, "conversation"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"id": d.ID, "summary": d.Summary})
}

func (s *GRPCServer) ListDiaries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.diaries.List(ctx, claims.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	items := make([]any, 0, len(list))
	for _, it := range list {
		items = append(items, map[string]any{
			"id":        it.ID,
			"title":     it.Title,
			"date":      it.Date.Format(time.RFC3339Nano),
			"thumbnail": it.Thumbnail,
		})
	}
	return structpb.NewStruct(map[string]any{"diaries": items})
}

func (s *GRPCServer) GetDiary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.diaries.Get(ctx, stringField(req, "id"), claims.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(diaryFields(d))
}

func (s *GRPCServer) UpdateTitle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.diaries.UpdateTitle(ctx, stringField(req, "id"), claims.UserID, stringField(req, "title")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return okResponse()
}

func (s *GRPCServer) UpdateThumbnail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.diaries.UpdateThumbnail(ctx, stringField(req, "id"), claims.UserID, stringField(req, "thumbnail")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return okResponse()
}

func (s *GRPCServer) GetVideoURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	claims, err := session(ctx)
	if err != nil {
		return nil, err
	}
	url, err := s.diaries.VideoURL(ctx, stringField(req, "id"), claims.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"url": url})
}

// toStatus maps service errors onto gRPC codes. Internal causes are logged
// and never sent to the client.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var ve *common.ValidationError
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return status.Error(codes.Unauthenticated, common.ErrMissingToken.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrSessionUnavailable):
		return status.Error(codes.Unavailable, common.ErrSessionUnavailable.Error())
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Reason)
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, common.ErrValidation.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrAlreadyExists.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrPipelineFailure):
		return status.Error(codes.Unavailable, "diary generation failed")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}

func session(ctx context.Context) (*auth.Claims, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, common.ErrMissingToken.Error())
	}
	return claims, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func okResponse() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"ok": true})
}

func diaryFields(d *models.Diary) map[string]any {
	return map[string]any{
		"id":           d.ID,
		"user":         d.UserID,
		"conversation": d.Conversation,
		"summary":      d.Summary,
		"video":        d.Video,
		"date":         d.Date.Format(time.RFC3339Nano),
		"title":        d.Title,
		"thumbnail":    d.Thumbnail,
	}
}
