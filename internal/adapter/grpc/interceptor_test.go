package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/transactions-backend/internal/logger"
)

func TestAuthInterceptor(t *testing.T) {
	validToken := "test-token-123"
	interceptor := AuthInterceptor(validToken)

	tests := []struct {
		name           string
		ctx            context.Context
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			handlerCalled:  true,
			expectedCode:   codes.OK,
			expectedErrMsg: "",
		},
		{
			name: "Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			handlerCalled:  true,
			expectedCode:   codes.OK,
			expectedErrMsg: "",
		},
		{
			name: "Lowercase Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "bearer "+validToken),
			),
			handlerCalled:  true,
			expectedCode:   codes.OK,
			expectedErrMsg: "",
		},
		{
			name: "Bearer With Wrong Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Token Prefix Only",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken[:4]),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := func(ctx context.Context, req any) (any, error) {
				handlerCalled = true
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: fullMethod(MethodNormalize),
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		lines = append(lines, line)
	}
	return lines
}

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name          string
		ctx           context.Context
		handlerErr    error
		expectedLevel string
		expectedCode  string
		expectedID    string
	}{
		{
			name:          "Success generates request id",
			ctx:           context.Background(),
			expectedLevel: "info",
			expectedCode:  "OK",
		},
		{
			name: "Client request id is reused",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("x-request-id", "req-42"),
			),
			expectedLevel: "info",
			expectedCode:  "OK",
			expectedID:    "req-42",
		},
		{
			name:          "Client errors log as warnings",
			ctx:           context.Background(),
			handlerErr:    status.Error(codes.InvalidArgument, "bad record"),
			expectedLevel: "warn",
			expectedCode:  "InvalidArgument",
		},
		{
			name:          "Plain errors log as errors",
			ctx:           context.Background(),
			handlerErr:    errors.New("boom"),
			expectedLevel: "error",
			expectedCode:  "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			interceptor := LoggingInterceptor(logger.NewWithWriter(&buf, "debug"))

			handler := func(ctx context.Context, req any) (any, error) {
				log := logger.FromContext(ctx)
				log.Debug().Msg("inside handler")
				return "success", tt.handlerErr
			}
			info := &grpc.UnaryServerInfo{FullMethod: fullMethod(MethodListTransactions)}

			_, err := interceptor(tt.ctx, "test-request", info, handler)
			assert.Equal(t, tt.handlerErr, err)

			lines := decodeLogLines(t, &buf)
			require.Len(t, lines, 2)

			inner, outer := lines[0], lines[1]
			assert.Equal(t, "inside handler", inner["message"])
			assert.Equal(t, outer["request_id"], inner["request_id"], "handler logger carries the request id")
			assert.NotEmpty(t, outer["request_id"])
			if tt.expectedID != "" {
				assert.Equal(t, tt.expectedID, outer["request_id"])
			}
			assert.Equal(t, "/transactions.v1.TransactionService/ListTransactions", outer["method"])
			assert.Equal(t, tt.expectedLevel, outer["level"])
			assert.Equal(t, tt.expectedCode, outer["code"])
		})
	}
}
