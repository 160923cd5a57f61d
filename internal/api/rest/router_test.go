package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/api/rest"
	"github.com/0mlml/localstorage-window-sync/internal/election"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/pointer"
	"github.com/0mlml/localstorage-window-sync/internal/registry"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

type fakePeer struct {
	mu      sync.Mutex
	calls   []string
	rect    spatial.Rect
	pos     spatial.Vec2
	button  pointer.Button
	down    bool
	latest  *frame.Frame
	claim   *election.Claim
	failing bool
}

func (f *fakePeer) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failing {
		return errors.New("queue full")
	}
	return nil
}

func (f *fakePeer) Self() peer.ID { return "self" }

func (f *fakePeer) Latest() (frame.Frame, bool) {
	if f.latest == nil {
		return frame.Frame{}, false
	}
	return *f.latest, true
}

func (f *fakePeer) Authority(context.Context) (election.Claim, bool, error) {
	if f.claim == nil {
		return election.Claim{}, false, nil
	}
	return *f.claim, true, nil
}

func (f *fakePeer) Peers(context.Context) ([]registry.PeerRect, error) {
	return []registry.PeerRect{{Peer: "other"}, {Peer: "self"}}, nil
}

func (f *fakePeer) Resize(rect spatial.Rect) error { f.rect = rect; return f.record("resize") }

func (f *fakePeer) PointerMove(local spatial.Vec2) error { f.pos = local; return f.record("move") }

func (f *fakePeer) PointerButton(b pointer.Button, down bool) error {
	f.button, f.down = b, down
	return f.record("button")
}

func (f *fakePeer) PointerEnter() error { return f.record("enter") }

func (f *fakePeer) PointerLeave() error { return f.record("leave") }

func (f *fakePeer) Spawn(local spatial.Vec2) error { f.pos = local; return f.record("spawn") }

func setup(t *testing.T) (*fakePeer, *rest.Hub, http.Handler) {
	t.Helper()
	fp := &fakePeer{}
	hub := rest.NewHub()
	return fp, hub, rest.New(fp, hub, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPointerInputs(t *testing.T) {
	fp, _, h := setup(t)

	rec := do(t, h, http.MethodPost, "/softsync/pointer/move", `{"x":10,"y":0}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, spatial.V(10, 0), fp.pos)

	rec = do(t, h, http.MethodPost, "/softsync/pointer/button", `{"button":"right","down":true}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, pointer.ButtonSecondary, fp.button)
	assert.True(t, fp.down)

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/softsync/pointer/enter", "").Code)
	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/softsync/pointer/leave", "").Code)
	assert.Equal(t, []string{"move", "button", "enter", "leave"}, fp.calls)
}

func TestBadRequests(t *testing.T) {
	fp, _, h := setup(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/softsync/pointer/move", `{"x":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/softsync/pointer/button", `{"button":"middle"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/softsync/window", `nope`).Code)
	assert.Empty(t, fp.calls)
}

func TestResizeAndSpawn(t *testing.T) {
	fp, _, h := setup(t)

	rec := do(t, h, http.MethodPut, "/softsync/window", `{"left":100,"top":50,"width":640,"height":480}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, spatial.Rect{Left: 100, Top: 50, Width: 640, Height: 480}, fp.rect)

	rec = do(t, h, http.MethodPost, "/softsync/spawn", `{"x":5,"y":6}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, spatial.V(5, 6), fp.pos)

	fp.failing = true
	rec = do(t, h, http.MethodPost, "/softsync/spawn", `{"x":5,"y":6}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInspection(t *testing.T) {
	fp, _, h := setup(t)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/softsync/world", "").Code)
	fp.latest = &frame.Frame{Peer: "self", Seq: 3, Authority: true}
	rec := do(t, h, http.MethodGet, "/softsync/world", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var f frame.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, uint64(3), f.Seq)
	assert.True(t, f.Authority)

	rec = do(t, h, http.MethodGet, "/softsync/authority", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"holder":null}`, rec.Body.String())

	fp.claim = &election.Claim{Holder: "self", ClaimedAt: time.UnixMilli(42), Epoch: 2}
	rec = do(t, h, http.MethodGet, "/softsync/authority", "")
	assert.JSONEq(t, `{"holder":"self","claimedAt":42,"epoch":2,"self":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/softsync/peers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var peers []frame.PeerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &peers))
	require.Len(t, peers, 2)
	assert.True(t, peers[1].Self)
}

func TestFramesStream(t *testing.T) {
	_, hub, h := setup(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/softsync/frames"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(frame.Frame{Peer: "self", Seq: 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame.Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, uint64(7), f.Seq)
	assert.Equal(t, peer.ID("self"), f.Peer)

	conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := rest.NewHub()
	id, ch := hub.Subscribe()
	for i := 0; i < 100; i++ {
		hub.Publish(frame.Frame{Seq: uint64(i)})
	}
	assert.Len(t, ch, 16)
	hub.Unsubscribe(id)
	_, open := <-ch
	assert.True(t, open, "buffered frames are still delivered")
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := rest.NewHub()
	_, ch := hub.Subscribe()
	hub.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount())

	_, late := hub.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after close yields a closed channel")

	hub.Close()
	hub.Publish(frame.Frame{Seq: 1})
}

func TestServeShutdownClosesFrameStreams(t *testing.T) {
	fp := &fakePeer{}
	hub := rest.NewHub()
	server := rest.New(fp, hub, zap.NewNop())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- server.ServeListener(ctx, lis) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+lis.Addr().String()+"/softsync/frames", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
