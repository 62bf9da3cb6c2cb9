// Package interceptor provides gRPC server middleware that validates unary
// request payloads against registered schemas before the handler runs.
package interceptor

import (
	"context"
	"log/slog"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/conform-io/conform/pbvalue"
	"github.com/conform-io/conform/schema"
	"github.com/conform-io/conform/value"
)

// Resolver maps a fully-qualified gRPC method name, e.g.
// "/billing.v1.Invoices/Create", to the schema its request must satisfy.
// Returning false exempts the method from validation.
type Resolver func(fullMethod string) (schema.Schema, bool)

// MethodMap builds a Resolver from a static method-to-schema table.
func MethodMap(m map[string]schema.Schema) Resolver {
	return func(fullMethod string) (schema.Schema, bool) {
		s, ok := m[fullMethod]
		return s, ok
	}
}

// Options configures the validation interceptor. The zero value is usable.
type Options struct {
	// Logger receives a warning per rejected request. Defaults to a JSON
	// logger on stderr.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// Unary returns a grpc.UnaryServerInterceptor that resolves a schema for each
// incoming method and rejects requests whose payload does not conform with
// codes.InvalidArgument. Methods the resolver does not know pass through
// untouched, as do requests that cannot be read as a document.
func Unary(resolve Resolver, opts Options) grpc.UnaryServerInterceptor {
	logger := opts.logger()

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		s, ok := resolve(info.FullMethod)
		if !ok {
			return handler(ctx, req)
		}

		doc, ok := document(req)
		if !ok {
			return handler(ctx, req)
		}

		if !schema.IsValid(doc, s) {
			logger.WarnContext(ctx, "request rejected",
				"method", info.FullMethod)
			return nil, status.Errorf(codes.InvalidArgument, "request does not conform to schema for %s", info.FullMethod)
		}

		return handler(ctx, req)
	}
}

// document extracts a validatable value from a request. Struct payloads
// convert directly; other proto messages go through their canonical JSON
// form.
func document(req any) (any, bool) {
	switch m := req.(type) {
	case *structpb.Struct:
		return pbvalue.FromStruct(m), true
	case *structpb.Value:
		return pbvalue.FromProto(m), true
	case proto.Message:
		raw, err := protojson.Marshal(m)
		if err != nil {
			return nil, false
		}
		doc, err := value.DecodeJSON(raw)
		if err != nil {
			return nil, false
		}
		return doc, true
	}
	return nil, false
}
