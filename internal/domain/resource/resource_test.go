package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/qbridge/internal/domain/page"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) ResourceStatus(ctx context.Context, service, name, identifier string) (*Status, error) {
	args := m.Called(service, name, identifier)
	if s, ok := args.Get(0).(*Status); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestBuild(t *testing.T) {
	full := Descriptor{Service: "WEBSITE", Name: "alice", Identifier: "blog", Path: "index.html"}
	bare := Descriptor{Service: "APP", Name: "bob"}

	tests := []struct {
		name   string
		view   page.ViewContext
		desc   Descriptor
		isLink bool
		want   string
	}{
		{"fetch full", page.ViewFetch, full, false, "/arbitrary/WEBSITE/alice/blog?filepath=index.html"},
		{"fetch link has no theme", page.ViewFetch, full, true, "/arbitrary/WEBSITE/alice/blog?filepath=index.html"},
		{"fetch bare", page.ViewFetch, bare, false, "/arbitrary/APP/bob"},
		{"render full", page.ViewRender, full, false, "/render/WEBSITE/alice/index.html?identifier=blog"},
		{"render link", page.ViewRender, full, true, "/render/WEBSITE/alice/index.html?identifier=blog&theme=dark"},
		{"render bare link", page.ViewRender, bare, true, "/render/APP/bob?&theme=dark"},
		{"gateway full", page.ViewGateway, full, false, "/WEBSITE/alice/blog/index.html"},
		{"gateway bare", page.ViewGateway, bare, false, "/APP/bob"},
		{"domain map", page.ViewDomainMap, full, false, "/alice/index.html"},
		{"domain map link", page.ViewDomainMap, bare, true, "/bob?&theme=dark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.view, "dark", tt.desc, tt.isLink))
		})
	}
}

func TestBuildLeadingSlashPath(t *testing.T) {
	d := Descriptor{Service: "WEBSITE", Name: "alice", Path: "/css/site.css"}
	assert.Equal(t, "/render/WEBSITE/alice/css/site.css", Build(page.ViewRender, "light", d, false))
	assert.Equal(t, "/WEBSITE/alice/css/site.css", Build(page.ViewGateway, "light", d, false))
}

func TestBuildIsIdempotent(t *testing.T) {
	d := Descriptor{Service: "IMAGE", Name: "carol", Identifier: "avatar"}
	first := Build(page.ViewGateway, "light", d, true)
	assert.Equal(t, first, Build(page.ViewGateway, "light", d, true))
}

func TestBuilderUsesPageContext(t *testing.T) {
	b := NewBuilder(page.New(page.ViewRender, "app", "q-mail", "", "", ""))
	d := Descriptor{Service: "IMAGE", Name: "carol", Identifier: "avatar"}

	assert.Equal(t, "/render/IMAGE/carol?identifier=avatar&theme=light", b.LinkURL(d))
	assert.Equal(t, "/arbitrary/IMAGE/carol/avatar", b.FetchURL(d))
}

func TestExtractIdentifierFromChunkCount(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ResourceStatus", "WEBSITE", "alice", "blog").Return(&Status{TotalChunkCount: 3}, nil)

	d, err := NewResolver(lookup).Extract(context.Background(), "qortal://website/alice/blog/posts/1.html")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Service: "WEBSITE", Name: "alice", Identifier: "blog", Path: "posts/1.html"}, *d)
	lookup.AssertExpectations(t)
}

func TestExtractSegmentIsPath(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ResourceStatus", "WEBSITE", "alice", "about.html").Return(&Status{TotalChunkCount: 0}, nil)

	d, err := NewResolver(lookup).Extract(context.Background(), "qortal://WEBSITE/alice/about.html")
	require.NoError(t, err)
	assert.Empty(t, d.Identifier)
	assert.Equal(t, "about.html", d.Path)
}

func TestExtractNameOnly(t *testing.T) {
	lookup := new(mockLookup)

	d, err := NewResolver(lookup).Extract(context.Background(), "qortal://APP/q-tube")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Service: "APP", Name: "q-tube"}, *d)
	lookup.AssertNotCalled(t, "ResourceStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtractFailures(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ResourceStatus", "WEBSITE", "alice", "x").Return(nil, errors.New("connection refused"))
	r := NewResolver(lookup)

	_, err := r.Extract(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrNotScheme)

	_, err = r.Extract(context.Background(), "qortal://WEBSITE")
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = r.Extract(context.Background(), "qortal://WEBSITE/")
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = r.Extract(context.Background(), "qortal://WEBSITE/alice/x")
	assert.ErrorContains(t, err, "connection refused")
}

func TestConvertToResourceURL(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ResourceStatus", "IMAGE", "carol", "avatar").Return(&Status{TotalChunkCount: 1}, nil)
	r := NewResolver(lookup)
	b := NewBuilder(page.New(page.ViewGateway, "WEBSITE", "site", "", "", "dark"))

	url, err := r.ConvertToResourceURL(context.Background(), b, "qortal://IMAGE/carol/avatar", true)
	require.NoError(t, err)
	assert.Equal(t, "/IMAGE/carol/avatar?&theme=dark", url)

	url, err = r.ConvertToResourceURL(context.Background(), b, "qortal://IMAGE/carol/avatar", false)
	require.NoError(t, err)
	assert.Equal(t, "/arbitrary/IMAGE/carol/avatar", url)
}

func TestParseGatewayPath(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ResourceStatus", "APP", "q-blog", "v2").Return(&Status{TotalChunkCount: 5}, nil)
	lookup.On("ResourceStatus", "WEBSITE", "alice", "img").Return(&Status{}, nil)
	r := NewResolver(lookup)

	d, err := r.ParseGatewayPath(context.Background(), "/app/q-blog/v2/index.html")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Service: "APP", Name: "q-blog", Identifier: "v2", Path: "index.html"}, *d)

	d, err = r.ParseGatewayPath(context.Background(), "alice/img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Service: "WEBSITE", Name: "alice", Path: "img/logo.png"}, *d)

	d, err = r.ParseGatewayPath(context.Background(), "/alice")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Service: "WEBSITE", Name: "alice"}, *d)

	_, err = r.ParseGatewayPath(context.Background(), "/")
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestIsService(t *testing.T) {
	assert.True(t, IsService("website"))
	assert.True(t, IsService("APP"))
	assert.False(t, IsService("alice"))
}
