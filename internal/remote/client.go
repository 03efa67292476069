package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/server"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region client-struct
// Client wraps the gRPC connection to a running editor's state service.
type Client struct {
	conn   *grpc.ClientConn
	client server.StateServiceClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to the state service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: server.NewStateServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewClientWithService(svc server.StateServiceClient) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region get
// Get fetches the editor's document as of its last completed frame.
func (c *Client) Get(ctx context.Context) (any, error) {
	resp, err := c.client.Get(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("get rpc: %w", err)
	}
	doc, err := value.Decode(resp.GetValue())
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// #endregion get

// #region set
// Set queues an edit of the widget at path. The editor applies it on its
// next frame.
func (c *Client) Set(ctx context.Context, path string, v any) error {
	pv, err := value.ToProto(v)
	if err != nil {
		return fmt.Errorf("convert value: %w", err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		server.FieldPath:  structpb.NewStringValue(path),
		server.FieldValue: pv,
	}}
	if _, err := c.client.Set(ctx, req); err != nil {
		return fmt.Errorf("set rpc: %w", err)
	}
	return nil
}

// #endregion set

// #region press
// Press queues a press of the button, tree node or window close at path.
func (c *Client) Press(ctx context.Context, path string) error {
	if _, err := c.client.Press(ctx, wrapperspb.String(path)); err != nil {
		return fmt.Errorf("press rpc: %w", err)
	}
	return nil
}

// #endregion press

// #region widgets
// Widgets fetches the widget trace of the editor's last completed frame.
func (c *Client) Widgets(ctx context.Context) (headless.Frame, error) {
	resp, err := c.client.Widgets(ctx, &emptypb.Empty{})
	if err != nil {
		return headless.Frame{}, fmt.Errorf("widgets rpc: %w", err)
	}
	var frame headless.Frame
	if err := json.Unmarshal(resp.GetValue(), &frame); err != nil {
		return headless.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

// #endregion widgets
