package server

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/handlers"
	"github.com/danielpatrickdp/jsonui/internal/logging"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/session"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region helpers
type memSink struct{ saved []any }

func (m *memSink) Save(doc any) error {
	m.saved = append(m.saved, value.Clone(doc))
	return nil
}

type fixture struct {
	sess   *session.Session
	ui     *headless.Backend
	sink   *memSink
	client StateServiceClient
}

func start(t *testing.T) fixture {
	t.Helper()
	doc, err := value.Decode([]byte(`{"speed": 1.5, "steps": 3, "name": "a"}`))
	require.NoError(t, err)

	ui := headless.New()
	ctx := dispatch.NewContext(handlers.NewRegistry(), ui, dispatch.Options{})
	sink := &memSink{}
	sess := session.New(doc, ctx, ui, session.Options{Sink: sink})

	lis := bufconn.Listen(1 << 20)
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(runCtx, lis, New(sess, ui, nil)) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return fixture{sess: sess, ui: ui, sink: sink, client: NewStateServiceClient(conn)}
}

func setReq(t *testing.T, path string, v any) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]any{FieldPath: path, FieldValue: v})
	require.NoError(t, err)
	return req
}

// #endregion helpers

// #region rpc-tests
func TestGetReturnsPublishedDocument(t *testing.T) {
	f := start(t)
	ctx := context.Background()

	resp, err := f.client.Get(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	got, err := value.Decode(resp.GetValue())
	require.NoError(t, err)
	require.True(t, value.Equal(f.sess.Document(), got))
}

func TestSetScalarPersistsOnce(t *testing.T) {
	f := start(t)
	ctx := context.Background()

	_, err := f.client.Set(ctx, setReq(t, "State/state/steps/int", 7))
	require.NoError(t, err)

	res, err := f.sess.RunFrame()
	require.NoError(t, err)
	require.NotNil(t, res.Save)
	require.Equal(t, logging.TriggerRemote, res.Save.Trigger)
	require.Len(t, f.sink.saved, 1)

	steps, ok := value.Get(f.sink.saved[0], []string{"steps"})
	require.True(t, ok)
	require.Equal(t, int64(7), steps)

	_, err = f.sess.RunFrame()
	require.NoError(t, err)
	require.Len(t, f.sink.saved, 1, "idle frame must not save again")

	resp, err := f.client.Get(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	got, err := value.Decode(resp.GetValue())
	require.NoError(t, err)
	steps, _ = value.Get(got, []string{"steps"})
	require.Equal(t, int64(7), steps)
}

func TestPressApply(t *testing.T) {
	f := start(t)
	_, err := f.client.Press(context.Background(), wrapperspb.String("State/"+session.ApplyButton))
	require.NoError(t, err)

	res, err := f.sess.RunFrame()
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Len(t, f.sink.saved, 1)
}

func TestWidgetsTrace(t *testing.T) {
	f := start(t)
	_, err := f.sess.RunFrame()
	require.NoError(t, err)

	resp, err := f.client.Widgets(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	var frame headless.Frame
	require.NoError(t, json.Unmarshal(resp.GetValue(), &frame))
	require.Equal(t, 1, frame.Number)
	_, ok := frame.Find("State/state/speed/float")
	require.True(t, ok)
}

func TestInvalidArguments(t *testing.T) {
	f := start(t)
	ctx := context.Background()

	_, err := f.client.Set(ctx, setReq(t, "", 1))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.Set(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldPath: structpb.NewStringValue("State/state/steps/int"),
	}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.Press(ctx, wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSetRejectsNonFinite(t *testing.T) {
	f := start(t)
	ctx := context.Background()

	for _, v := range []any{math.NaN(), math.Inf(1), []any{1.0, math.Inf(-1)}} {
		_, err := f.client.Set(ctx, setReq(t, "State/state/speed/float", v))
		require.Equal(t, codes.InvalidArgument, status.Code(err), "value %v", v)
	}

	res, err := f.sess.RunFrame()
	require.NoError(t, err)
	require.Nil(t, res.Save)

	_, err = f.client.Widgets(ctx, &emptypb.Empty{})
	require.NoError(t, err)
}

func TestRemoteFlagTravelsWithEvent(t *testing.T) {
	f := start(t)
	ctx := context.Background()

	// A frame before the queued edit must not consume the remote tag.
	_, err := f.sess.RunFrame()
	require.NoError(t, err)

	_, err = f.client.Set(ctx, setReq(t, "State/state/name/text", "b"))
	require.NoError(t, err)
	res, err := f.sess.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.TriggerRemote, res.Save.Trigger)

	f.ui.Queue(headless.SetValue("State/state/name/text", "c"))
	res, err = f.sess.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.TriggerFrame, res.Save.Trigger, "local edits after a remote one are tagged frame")
}

// #endregion rpc-tests
