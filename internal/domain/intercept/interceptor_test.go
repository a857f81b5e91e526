package intercept

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
)

type statusStub map[string]int

func (s statusStub) ResourceStatus(_ context.Context, service, name, identifier string) (*resource.Status, error) {
	if identifier == "broken" {
		return nil, errors.New("node unavailable")
	}
	return &resource.Status{TotalChunkCount: s[service+"/"+name+"/"+identifier]}, nil
}

type mockRequester struct {
	mock.Mock
}

func (m *mockRequester) Request(_ context.Context, req *message.Request) (any, error) {
	args := m.Called(req.Action, req.Map())
	return args.Get(0), args.Error(1)
}

func newInterceptor(status statusStub, requester Requester) *Interceptor {
	p := page.New(page.ViewRender, "APP", "q-blog", "", "", "light")
	return New(resource.NewResolver(status), resource.NewBuilder(p), requester, nil)
}

func TestOnClickExternalAlwaysPrevented(t *testing.T) {
	i := newInterceptor(statusStub{}, new(mockRequester))

	for _, href := range []string{"https://external.example", "http://x.y/z", "//cdn.example/lib.js"} {
		d := i.OnClick(context.Background(), href)
		assert.True(t, d.PreventDefault, href)
		assert.Empty(t, d.Location)
	}
}

func TestOnClickRelativeUntouched(t *testing.T) {
	i := newInterceptor(statusStub{}, new(mockRequester))
	assert.Equal(t, Decision{}, i.OnClick(context.Background(), "about.html"))
	assert.Equal(t, Decision{}, i.OnClick(context.Background(), "#top"))
}

func TestOnClickIdentifierConfirmed(t *testing.T) {
	req := new(mockRequester)
	req.On("Request", message.ActionLinkToResource, map[string]any{
		"action":     "LINK_TO_QDN_RESOURCE",
		"service":    "WEBSITE",
		"name":       "foo",
		"identifier": "bar",
	}).Return("/render/WEBSITE/foo?identifier=bar&theme=light", nil)

	i := newInterceptor(statusStub{"WEBSITE/foo/bar": 4}, req)
	d := i.OnClick(context.Background(), "qortal://WEBSITE/foo/bar")

	assert.True(t, d.PreventDefault)
	assert.Equal(t, "/render/WEBSITE/foo?identifier=bar&theme=light", d.Location)
	req.AssertExpectations(t)
}

func TestOnClickSegmentIsPath(t *testing.T) {
	req := new(mockRequester)
	req.On("Request", message.ActionLinkToResource, map[string]any{
		"action":  "LINK_TO_QDN_RESOURCE",
		"service": "WEBSITE",
		"name":    "foo",
		"path":    "bar",
	}).Return("/render/WEBSITE/foo/bar?&theme=light", nil)

	i := newInterceptor(statusStub{}, req)
	d := i.OnClick(context.Background(), "qortal://WEBSITE/foo/bar")

	assert.True(t, d.PreventDefault)
	assert.Equal(t, "/render/WEBSITE/foo/bar?&theme=light", d.Location)
	req.AssertExpectations(t)
}

func TestOnClickResolutionFailureStillPrevents(t *testing.T) {
	req := new(mockRequester)
	i := newInterceptor(statusStub{}, req)

	assert.Equal(t, Decision{PreventDefault: true}, i.OnClick(context.Background(), "qortal://WEBSITE/foo/broken"))
	assert.Equal(t, Decision{PreventDefault: true}, i.OnClick(context.Background(), "qortal://WEBSITE"))
	req.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)
}

func TestOnClickRequestFailureStillPrevents(t *testing.T) {
	req := new(mockRequester)
	req.On("Request", message.ActionLinkToResource, mock.Anything).Return(nil, errors.New("timed out"))

	i := newInterceptor(statusStub{}, req)
	d := i.OnClick(context.Background(), "qortal://APP/q-mail")
	assert.True(t, d.PreventDefault)
	assert.Empty(t, d.Location)
}

func TestOnAnchorClickFindsEnclosingAnchor(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<p><a href="https://external.example"><span id="inner">go</span></a><span id="loose">x</span></p>`))
	require.NoError(t, err)

	i := newInterceptor(statusStub{}, new(mockRequester))
	assert.True(t, i.OnAnchorClick(context.Background(), doc.Find("#inner")).PreventDefault)
	assert.False(t, i.OnAnchorClick(context.Background(), doc.Find("#loose")).PreventDefault)
}

func TestRewriteImages(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<body>
		<img id="a" src="qortal://IMAGE/carol/avatar">
		<img id="b" src="qortal://THUMBNAIL/dave/pic.png">
		<img id="c" src="local.png">
		<img id="d" src="qortal://IMAGE/erin/broken">
	</body>`))
	require.NoError(t, err)

	i := newInterceptor(statusStub{"IMAGE/carol/avatar": 1}, new(mockRequester))
	assert.Equal(t, 2, i.RewriteImages(context.Background(), doc))

	src := func(id string) string {
		v, _ := doc.Find("#" + id).Attr("src")
		return v
	}
	assert.Equal(t, "/arbitrary/IMAGE/carol/avatar", src("a"))
	assert.Equal(t, "/arbitrary/THUMBNAIL/dave?filepath=pic.png", src("b"))
	assert.Equal(t, "local.png", src("c"))
	assert.Equal(t, "qortal://IMAGE/erin/broken", src("d"))
}

func TestOnImageSrcChange(t *testing.T) {
	i := newInterceptor(statusStub{}, new(mockRequester))

	url, ok := i.OnImageSrcChange(context.Background(), "qortal://IMAGE/carol")
	require.True(t, ok)
	assert.Equal(t, "/arbitrary/IMAGE/carol", url)

	_, ok = i.OnImageSrcChange(context.Background(), "/static/logo.png")
	assert.False(t, ok)
}
