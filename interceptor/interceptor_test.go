package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/conform-io/conform/schema"
)

var createInvoice = schema.Object(map[string]schema.Schema{
	"currency": schema.EnumOf("USD", "EUR"),
	"total":    schema.Number,
})

func callInfo(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

func passHandler(t *testing.T) (grpc.UnaryHandler, *bool) {
	t.Helper()
	called := false
	return func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	}, &called
}

func TestUnaryAcceptsConformingRequest(t *testing.T) {
	intercept := Unary(MethodMap(map[string]schema.Schema{
		"/billing.v1.Invoices/Create": createInvoice,
	}), Options{})

	req, err := structpb.NewStruct(map[string]any{
		"currency": "USD",
		"total":    float64(99),
		"memo":     "extra fields are fine",
	})
	require.NoError(t, err)

	handler, called := passHandler(t)
	resp, err := intercept(context.Background(), req, callInfo("/billing.v1.Invoices/Create"), handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.True(t, *called)
}

func TestUnaryRejectsNonConformingRequest(t *testing.T) {
	intercept := Unary(MethodMap(map[string]schema.Schema{
		"/billing.v1.Invoices/Create": createInvoice,
	}), Options{})

	req, err := structpb.NewStruct(map[string]any{
		"currency": "GBP",
		"total":    float64(99),
	})
	require.NoError(t, err)

	handler, called := passHandler(t)
	_, err = intercept(context.Background(), req, callInfo("/billing.v1.Invoices/Create"), handler)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.False(t, *called)
}

func TestUnaryPassesUnknownMethods(t *testing.T) {
	intercept := Unary(MethodMap(nil), Options{})

	handler, called := passHandler(t)
	_, err := intercept(context.Background(), &structpb.Struct{}, callInfo("/other.v1.Svc/Do"), handler)
	require.NoError(t, err)
	assert.True(t, *called)
}

func TestUnaryValidatesBareValue(t *testing.T) {
	intercept := Unary(MethodMap(map[string]schema.Schema{
		"/cfg.v1.Cfg/SetPort": schema.Expr(`self >= 1 && self <= 65535`),
	}), Options{})

	handler, _ := passHandler(t)

	_, err := intercept(context.Background(), structpb.NewNumberValue(8080), callInfo("/cfg.v1.Cfg/SetPort"), handler)
	assert.NoError(t, err)

	_, err = intercept(context.Background(), structpb.NewNumberValue(70000), callInfo("/cfg.v1.Cfg/SetPort"), handler)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUnaryPassesUnreadableRequest(t *testing.T) {
	intercept := Unary(MethodMap(map[string]schema.Schema{
		"/x.v1.X/Do": schema.String,
	}), Options{})

	handler, called := passHandler(t)
	_, err := intercept(context.Background(), struct{}{}, callInfo("/x.v1.X/Do"), handler)
	require.NoError(t, err)
	assert.True(t, *called)
}
