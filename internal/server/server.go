package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/session"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// Field names of a Set request.
const (
	FieldPath  = "path"
	FieldValue = "value"
)

// #region server
// Server exposes a session whose backend is headless. Edits are queued as
// input events and consumed by the frame loop, so they go through the same
// handlers, dirty tracking and gate as local input.
type Server struct {
	sess *session.Session
	ui   *headless.Backend
	log  *slog.Logger
}

var _ StateServiceServer = (*Server)(nil)

// New returns a server for sess drawing into ui.
func New(sess *session.Session, ui *headless.Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sess: sess, ui: ui, log: logger}
}

// #endregion server

// #region rpc
// Get returns the document as of the last completed frame, JSON encoded.
func (s *Server) Get(_ context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	data, err := value.Encode(s.sess.Document())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode document: %v", err)
	}
	return wrapperspb.Bytes(data), nil
}

// Set queues a value edit for the widget at path.
func (s *Server) Set(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	path := fields[FieldPath].GetStringValue()
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}
	v, ok := fields[FieldValue]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "value is required")
	}
	if !finite(v) {
		return nil, status.Error(codes.InvalidArgument, "value contains NaN or Inf")
	}
	ev := headless.SetValue(path, value.FromProto(v))
	ev.Remote = true
	s.ui.Queue(ev)
	s.log.Debug("remote set queued", "path", path)
	return &emptypb.Empty{}, nil
}

// Press queues a press of the button, tree node or window close at path.
func (s *Server) Press(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	path := req.GetValue()
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}
	ev := headless.Press(path)
	ev.Remote = true
	s.ui.Queue(ev)
	s.log.Debug("remote press queued", "path", path)
	return &emptypb.Empty{}, nil
}

// Widgets returns the widget trace of the last completed frame as JSON.
func (s *Server) Widgets(_ context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(s.ui.LastFrame())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode frame: %v", err)
	}
	return wrapperspb.Bytes(data), nil
}

// finite reports whether every number in v is neither NaN nor Inf.
func finite(v *structpb.Value) bool {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return !math.IsNaN(k.NumberValue) && !math.IsInf(k.NumberValue, 0)
	case *structpb.Value_ListValue:
		for _, item := range k.ListValue.GetValues() {
			if !finite(item) {
				return false
			}
		}
	case *structpb.Value_StructValue:
		for _, item := range k.StructValue.GetFields() {
			if !finite(item) {
				return false
			}
		}
	}
	return true
}

// #endregion rpc

// #region serve
// Serve registers s on a new grpc.Server and serves lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, s *Server) error {
	gs := grpc.NewServer()
	RegisterStateServiceServer(gs, s)

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	s.log.Info("state service listening", "addr", lis.Addr().String())
	if err := gs.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// #endregion serve
