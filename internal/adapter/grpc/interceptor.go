package grpc

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/transactions-backend/internal/logger"
)

const (
	authorizationHeader = "authorization"
	requestIDHeader     = "x-request-id"
	bearerPrefix        = "bearer "
)

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata.
// The token may be sent bare or as "Bearer <token>".
// If the token is missing or invalid, it returns status.Unauthenticated.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get(authorizationHeader)
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := strings.TrimSpace(authHeaders[0])
		if len(token) > len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
			token = strings.TrimSpace(token[len(bearerPrefix):])
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor returns a gRPC unary server interceptor that tags every
// request with an id, stores a request-scoped logger in the context and logs
// the outcome. A client-supplied x-request-id is reused.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDHeader); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Fails outside a real server transport; the id is still logged
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

		reqLog := log.With().
			Str("request_id", requestID).
			Str("method", info.FullMethod).
			Logger()
		ctx = logger.WithContext(ctx, reqLog)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		event := reqLog.Info()
		switch code {
		case codes.OK:
		case codes.Internal, codes.Unknown:
			event = reqLog.Error().Err(err)
		default:
			event = reqLog.Warn().Err(err)
		}
		event.
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("request handled")

		return resp, err
	}
}
