package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

var publicMethods = map[string]bool{
	FullMethod(MethodSignup): true,
	FullMethod(MethodLogin):  true,
}

// accessTokenInterceptor is the gRPC session guard. Every method of the
// diary service except Signup and Login needs "authorization: Bearer <token>"
// metadata; other services (health) pass through.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") || publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}

	scheme, token, found := strings.Cut(strings.TrimSpace(accessToken), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		return nil, status.Error(codes.Unauthenticated, common.ErrMissingToken.Error())
	}

	claims, err := s.users.Authorize(ctx, token)
	if err != nil {
		s.logger.Warn(ctx, "token validation failed", "method", info.FullMethod, "error", err)
		if errors.Is(err, common.ErrSessionUnavailable) {
			return nil, status.Error(codes.Unavailable, common.ErrSessionUnavailable.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}
