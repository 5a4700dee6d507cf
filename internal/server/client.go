package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls docgate.v1.DocumentGate.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRoots(ctx context.Context) ([]string, error) {
	out, err := c.call(ctx, "ListRoots", nil)
	if err != nil {
		return nil, err
	}
	return stringList(out, "roots"), nil
}

func (c *Client) FindDocuments(ctx context.Context, pattern string) ([]string, error) {
	out, err := c.call(ctx, "FindDocuments", map[string]any{"pattern": pattern})
	if err != nil {
		return nil, err
	}
	return stringList(out, "paths"), nil
}

// Convert returns the raw response struct (output, stage, saved_to, ...).
// When the conversion succeeded but saving failed, the struct is returned
// together with the error.
func (c *Client) Convert(ctx context.Context, path, format, destination string) (*structpb.Struct, error) {
	in := map[string]any{"path": path, "format": format}
	if destination != "" {
		in["destination"] = destination
	}
	out, err := c.call(ctx, "Convert", in)
	if err != nil {
		return ResultFromError(err), err
	}
	return out, nil
}

// ResultFromError extracts the conversion result carried by a Convert error,
// or nil when there is none.
func ResultFromError(err error) *structpb.Struct {
	for _, d := range status.Convert(err).Details() {
		if s, ok := d.(*structpb.Struct); ok {
			return s
		}
	}
	return nil
}

func (c *Client) Export(ctx context.Context, paths []string, destination string) (*structpb.Struct, error) {
	return c.call(ctx, "Export", map[string]any{"paths": toList(paths), "destination": destination})
}
