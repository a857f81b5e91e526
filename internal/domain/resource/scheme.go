package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Scheme is the custom link scheme for resources.
const Scheme = "qortal://"

var (
	// ErrNotScheme is returned for links that do not use Scheme.
	ErrNotScheme = errors.New("not a resource link")
	// ErrIncomplete is returned for links missing a service or name.
	ErrIncomplete = errors.New("incomplete resource link")
)

// Status is the subset of the node's resource status report used here.
type Status struct {
	ID              string  `json:"id,omitempty"`
	Title           string  `json:"title,omitempty"`
	Description     string  `json:"description,omitempty"`
	LocalChunkCount int     `json:"localChunkCount"`
	TotalChunkCount int     `json:"totalChunkCount"`
	Percent         float64 `json:"percentLoaded,omitempty"`
}

// StatusLookup reports the status of a service/name/identifier combination.
type StatusLookup interface {
	ResourceStatus(ctx context.Context, service, name, identifier string) (*Status, error)
}

// IsSchemeLink reports whether href uses the resource scheme.
func IsSchemeLink(href string) bool {
	return strings.HasPrefix(href, Scheme)
}

// Resolver turns scheme links into descriptors.
type Resolver struct {
	lookup StatusLookup
}

// NewResolver creates a resolver backed by the given status lookup.
func NewResolver(lookup StatusLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Extract resolves a qortal:// link into its components.
func (r *Resolver) Extract(ctx context.Context, href string) (*Descriptor, error) {
	if !IsSchemeLink(href) {
		return nil, ErrNotScheme
	}

	rest := strings.TrimPrefix(href, Scheme)
	if !strings.Contains(rest, "/") {
		return nil, ErrIncomplete
	}

	parts := strings.Split(rest, "/")
	d := &Descriptor{
		Service: strings.ToUpper(parts[0]),
		Name:    parts[1],
	}
	if d.Service == "" || d.Name == "" {
		return nil, ErrIncomplete
	}
	parts = parts[2:]

	if len(parts) > 0 && parts[0] != "" {
		isID, err := r.isIdentifier(ctx, d.Service, d.Name, parts[0])
		if err != nil {
			return nil, err
		}
		if isID {
			d.Identifier = parts[0]
			parts = parts[1:]
		}
	}

	d.Path = strings.Join(parts, "/")
	return d, nil
}

// isIdentifier checks whether a resource exists for the candidate identifier.
func (r *Resolver) isIdentifier(ctx context.Context, service, name, candidate string) (bool, error) {
	if r.lookup == nil {
		return false, nil
	}
	status, err := r.lookup.ResourceStatus(ctx, service, name, candidate)
	if err != nil {
		return false, fmt.Errorf("status lookup for %s/%s/%s: %w", service, name, candidate, err)
	}
	return status != nil && status.TotalChunkCount > 0, nil
}

// ConvertToResourceURL resolves href and builds its URL with b.
func (r *Resolver) ConvertToResourceURL(ctx context.Context, b *Builder, href string, isLink bool) (string, error) {
	d, err := r.Extract(ctx, href)
	if err != nil {
		return "", err
	}
	if isLink {
		return b.URL(*d, true), nil
	}
	return b.FetchURL(*d), nil
}
