package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
)

type fakeNode struct {
	mu     sync.Mutex
	bodies map[string]string
	err    error
	paths  []string
}

func (f *fakeNode) Get(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return "", f.err
	}
	return f.bodies[path], nil
}

type uiRecorder struct {
	mu   sync.Mutex
	msgs []message.Message
}

func (u *uiRecorder) Post(_ context.Context, msg message.Message) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.msgs = append(u.msgs, msg)
}

func (u *uiRecorder) received() []message.Message {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]message.Message(nil), u.msgs...)
}

func newDispatcher(node Fetcher, ui message.Poster, opts ...Option) *Dispatcher {
	p := page.New(page.ViewRender, "APP", "q-blog", "", "", "dark")
	return New(DirectRoutes, node, ui, resource.NewBuilder(p), opts...)
}

func await(t *testing.T, reply *message.ReplyChannel) message.Envelope {
	t.Helper()
	select {
	case env, ok := <-reply.C():
		require.True(t, ok, "reply channel closed without a reply")
		return env
	case <-time.After(time.Second):
		t.Fatal("no reply")
		return message.Envelope{}
	}
}

func TestPostFetchesFromNode(t *testing.T) {
	node := &fakeNode{bodies: map[string]string{"/names/alice": `{"name":"alice","owner":"Qabc"}`}}
	d := newDispatcher(node, nil)

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: req(message.ActionGetNameData, map[string]any{"name": "alice"}),
		Reply:   reply,
	})

	env := await(t, reply)
	assert.Equal(t, map[string]any{"name": "alice", "owner": "Qabc"}, env.Result)
	assert.Nil(t, env.Error)
}

func TestPostEmptyResponseFallsBackToUI(t *testing.T) {
	node := &fakeNode{bodies: map[string]string{}}
	ui := &uiRecorder{}
	d := newDispatcher(node, ui)

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: req(message.ActionGetNameData, map[string]any{"name": "nobody"}),
		Reply:   reply,
	})

	require.Eventually(t, func() bool { return len(ui.received()) == 1 }, time.Second, 5*time.Millisecond)
	fwd := ui.received()[0]
	assert.True(t, fwd.Request.TargetsUI())
	assert.Same(t, reply, fwd.Reply)
}

func TestPostNodeErrorBecomesFailure(t *testing.T) {
	d := newDispatcher(&fakeNode{err: errors.New("connection refused")}, nil)

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: req(message.ActionGetAccountData, map[string]any{"address": "Qabc"}),
		Reply:   reply,
	})

	env := await(t, reply)
	assert.Equal(t, map[string]any{"error": "connection refused"}, env.Error)
}

func TestPostForwardsUnknownActions(t *testing.T) {
	ui := &uiRecorder{}
	d := newDispatcher(&fakeNode{}, ui)

	original := req(message.ActionGetUserAccount, map[string]any{"reason": "login"})
	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{Request: original, Reply: reply})

	msgs := ui.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, message.HandlerUI, msgs[0].Request.RequestedHandler)
	assert.Equal(t, "login", msgs[0].Request.Text("reason"))
	assert.Same(t, reply, msgs[0].Reply)
	assert.Empty(t, original.RequestedHandler)
}

func TestPostDropsUITargetedAndEmpty(t *testing.T) {
	node := &fakeNode{}
	ui := &uiRecorder{}
	d := newDispatcher(node, ui)

	targeted := req(message.ActionGetNameData, map[string]any{"name": "alice"}).ForUI()
	d.Post(context.Background(), message.Message{Request: targeted, Reply: message.NewReplyChannel()})
	d.Post(context.Background(), message.Message{Request: nil, Reply: message.NewReplyChannel()})
	d.Post(context.Background(), message.Message{Request: &message.Request{}, Reply: message.NewReplyChannel()})

	assert.Empty(t, ui.received())
	assert.Empty(t, node.paths)
}

func TestPostRelaysMessagesWithoutAction(t *testing.T) {
	d := newDispatcher(&fakeNode{}, nil)

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: message.FromMap(map[string]any{"address": "Qabc"}),
		Reply:   reply,
	})
	env := await(t, reply)
	assert.Equal(t, map[string]any{"address": "Qabc"}, env.Result)
}

func TestPostLocalActions(t *testing.T) {
	var navigated string
	d := newDispatcher(&fakeNode{}, nil, WithNavigator(NavigatorFunc(func(_ context.Context, loc string) {
		navigated = loc
	})))

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: req(message.ActionGetResourceURL, map[string]any{"service": "IMAGE", "name": "carol", "identifier": "avatar"}),
		Reply:   reply,
	})
	assert.Equal(t, "/arbitrary/IMAGE/carol/avatar", await(t, reply).Result)

	reply = message.NewReplyChannel()
	d.Post(context.Background(), message.Message{
		Request: req(message.ActionLinkToResource, map[string]any{"name": "alice", "path": "about.html"}),
		Reply:   reply,
	})
	assert.Equal(t, "/render/WEBSITE/alice/about.html?&theme=dark", await(t, reply).Result)
	assert.Equal(t, "/render/WEBSITE/alice/about.html?&theme=dark", navigated)
}

func TestPostMissingFieldFails(t *testing.T) {
	d := newDispatcher(&fakeNode{}, nil)

	reply := message.NewReplyChannel()
	d.Post(context.Background(), message.Message{Request: req(message.ActionGetNameData, nil), Reply: reply})
	assert.Equal(t, map[string]any{"error": "missing required field: name"}, await(t, reply).Error)
}

func TestDispatchBlocks(t *testing.T) {
	node := &fakeNode{bodies: map[string]string{"/groups?limit=5": `[{"groupId":1}]`}}
	d := newDispatcher(node, nil)

	env, ok := d.Dispatch(context.Background(), req(message.ActionListGroups, map[string]any{"limit": 5}))
	require.True(t, ok)
	assert.Equal(t, []any{map[string]any{"groupId": float64(1)}}, env.Result)

	env, ok = d.Dispatch(context.Background(), req(message.ActionGetNameData, map[string]any{"name": "x"}))
	require.True(t, ok)
	assert.Equal(t, map[string]any{"error": EmptyResponse}, env.Error)

	_, ok = d.Dispatch(context.Background(), req(message.ActionSendCoin, nil))
	assert.False(t, ok)
}

type dispositions struct {
	mu  sync.Mutex
	got []Disposition
}

func (d *dispositions) ObserveDispatch(_ string, disp Disposition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, disp)
}

func TestClassifyIsPure(t *testing.T) {
	obs := &dispositions{}
	d := newDispatcher(&fakeNode{}, nil, WithObserver(obs))

	cases := map[Disposition]*message.Request{
		DispositionFetch:   req(message.ActionGetNameData, nil),
		DispositionLocal:   req(message.ActionGetResourceURL, nil),
		DispositionForward: req(message.ActionPublishResource, nil),
		DispositionDrop:    req(message.ActionGetNameData, nil).ForUI(),
		DispositionRelay:   message.FromMap(map[string]any{"result": 1}),
	}
	for want, r := range cases {
		assert.Equal(t, want, d.Classify(r))
		assert.Equal(t, want, d.Classify(r))
	}
	assert.Empty(t, obs.got)

	apps := New(AppsRoutes, &fakeNode{}, nil, nil)
	assert.Equal(t, DispositionForward, apps.Classify(req(message.ActionFetchBlock, nil)))
}
