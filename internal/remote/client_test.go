package remote

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/handlers"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/server"
	"github.com/danielpatrickdp/jsonui/internal/session"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region mock
type mockStateService struct {
	server.StateServiceClient

	getResp *wrapperspb.BytesValue
	getErr  error

	setReq *structpb.Struct
	setErr error

	pressReq *wrapperspb.StringValue
	pressErr error

	widgetsResp *wrapperspb.BytesValue
	widgetsErr  error
}

func (m *mockStateService) Get(_ context.Context, _ *emptypb.Empty, _ ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return m.getResp, m.getErr
}

func (m *mockStateService) Set(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	m.setReq = in
	return &emptypb.Empty{}, m.setErr
}

func (m *mockStateService) Press(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	m.pressReq = in
	return &emptypb.Empty{}, m.pressErr
}

func (m *mockStateService) Widgets(_ context.Context, _ *emptypb.Empty, _ ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return m.widgetsResp, m.widgetsErr
}

// #endregion mock

// #region constructor-tests
func TestNewClient(t *testing.T) {
	c, err := NewClient("localhost:0")
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestNewClientWithService(t *testing.T) {
	c := NewClientWithService(&mockStateService{})
	require.NotNil(t, c.client)
	require.NoError(t, c.Close())
}

// #endregion constructor-tests

// #region mock-tests
func TestGet(t *testing.T) {
	mock := &mockStateService{getResp: wrapperspb.Bytes([]byte(`{"b": 1, "a": 2.5}`))}
	doc, err := NewClientWithService(mock).Get(context.Background())
	require.NoError(t, err)
	require.True(t, value.Equal(value.MapOf("b", int64(1), "a", 2.5), doc))

	mock.getResp = wrapperspb.Bytes([]byte(`{`))
	_, err = NewClientWithService(mock).Get(context.Background())
	require.ErrorContains(t, err, "decode document")

	mock.getErr = errors.New("unavailable")
	_, err = NewClientWithService(mock).Get(context.Background())
	require.ErrorContains(t, err, "get rpc")
}

func TestSet(t *testing.T) {
	mock := &mockStateService{}
	c := NewClientWithService(mock)

	require.NoError(t, c.Set(context.Background(), "State/state/x/int", int64(4)))
	require.Equal(t, "State/state/x/int", mock.setReq.GetFields()[server.FieldPath].GetStringValue())
	require.Equal(t, 4.0, mock.setReq.GetFields()[server.FieldValue].GetNumberValue())

	require.ErrorContains(t, c.Set(context.Background(), "p", struct{}{}), "convert value")

	mock.setErr = errors.New("boom")
	require.ErrorContains(t, c.Set(context.Background(), "p", 1.0), "set rpc")
}

func TestPressAndWidgets(t *testing.T) {
	mock := &mockStateService{
		widgetsResp: wrapperspb.Bytes([]byte(`{"number": 3, "widgets": [{"path": "State/apply", "type": "button"}]}`)),
	}
	c := NewClientWithService(mock)

	require.NoError(t, c.Press(context.Background(), "State/apply"))
	require.Equal(t, "State/apply", mock.pressReq.GetValue())

	frame, err := c.Widgets(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, frame.Number)
	_, ok := frame.Find("State/apply")
	require.True(t, ok)

	mock.pressErr = errors.New("boom")
	require.ErrorContains(t, c.Press(context.Background(), "x"), "press rpc")
	mock.widgetsErr = errors.New("boom")
	_, err = c.Widgets(context.Background())
	require.ErrorContains(t, err, "widgets rpc")
}

// #endregion mock-tests

// #region end-to-end
type memSink struct{ saved []any }

func (m *memSink) Save(doc any) error {
	m.saved = append(m.saved, value.Clone(doc))
	return nil
}

func dialBuf(t *testing.T, sess *session.Session, ui *headless.Backend) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, lis, server.New(sess, ui, nil)) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	c := &Client{conn: conn, client: server.NewStateServiceClient(conn)}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRemoteEditThroughSession(t *testing.T) {
	doc, err := value.Decode([]byte(`{
  "gain": 0.5,
  "taps": {"type": "float", "value": [1.0], "count": 1}
}`))
	require.NoError(t, err)
	ui := headless.New()
	ctx := dispatch.NewContext(handlers.NewRegistry(), ui, dispatch.Options{})
	sink := &memSink{}
	sess := session.New(doc, ctx, ui, session.Options{Sink: sink})
	c := dialBuf(t, sess, ui)
	bg := context.Background()

	require.NoError(t, c.Set(bg, "State/state/gain/float", 0.75))
	require.NoError(t, c.Set(bg, "State/state/taps/len", 3))
	_, err = sess.RunFrame()
	require.NoError(t, err)
	require.Len(t, sink.saved, 1)

	got, err := c.Get(bg)
	require.NoError(t, err)
	gain, _ := value.Get(got, []string{"gain"})
	require.Equal(t, 0.75, gain)
	taps, _ := value.Get(got, []string{"taps", "value"})
	require.Len(t, taps, 3)
	count, _ := value.Get(got, []string{"taps", "count"})
	require.Equal(t, int64(3), count)

	frame, err := c.Widgets(bg)
	require.NoError(t, err)
	_, ok := frame.Find("State/state/2/taps/float")
	require.True(t, ok, "resized elements are drawn in the same frame")

}

// #endregion end-to-end
