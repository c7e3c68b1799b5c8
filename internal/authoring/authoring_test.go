package authoring

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

type fakeAllocator struct {
	code string
	err  error
}

func (f *fakeAllocator) Allocate(ctx context.Context, link *model.Link) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	link.ShortCode = f.code
	return f.code, nil
}

type fakeStore struct {
	rejectAlias bool
	inserted    *model.Link
}

func (f *fakeStore) Insert(ctx context.Context, link *model.Link) error {
	if f.rejectAlias {
		return linkstore.ErrDuplicateCode
	}
	f.inserted = link
	return nil
}

func TestNormalize_LowercasesHostAndTrimsTrailingSlash(t *testing.T) {
	out, meta, err := Normalize("HTTPS://Example.COM/path/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", out)
	assert.Equal(t, "example.com", meta.Domain)
	assert.Equal(t, "https", meta.Protocol)
}

func TestNormalize_PreservesRootPath(t *testing.T) {
	out, _, err := Normalize("https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", out)
}

func TestNormalize_IsIdempotent(t *testing.T) {
	first, _, err := Normalize("HTTPS://Example.COM/a/b/")
	require.NoError(t, err)
	second, _, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_RejectsEmpty(t *testing.T) {
	_, _, err := Normalize("")
	assert.Error(t, err)
}

func TestNormalize_RejectsNonHTTPScheme(t *testing.T) {
	_, _, err := Normalize("ftp://example.com/file")
	assert.Error(t, err)
}

func TestCreate_DelegatesToAllocatorWhenNoAlias(t *testing.T) {
	alloc := &fakeAllocator{code: "abc123"}
	store := &fakeStore{}
	svc := New(alloc, store, 0)
	before := testutil.ToFloat64(obs.LinksCreatedTotal.WithLabelValues("false"))

	link, err := svc.Create(context.Background(), CreateInput{OriginalURL: "https://example.com"}, 42)
	require.NoError(t, err)
	assert.Equal(t, "abc123", link.ShortCode)
	assert.Equal(t, int64(42), link.OwnerID)
	assert.Nil(t, link.ExpiresAt)

	after := testutil.ToFloat64(obs.LinksCreatedTotal.WithLabelValues("false"))
	assert.Equal(t, before+1, after, "allocator-minted creation must be counted as via_custom_alias=false")
}

func TestCreate_UsesCustomAliasWhenProvided(t *testing.T) {
	alloc := &fakeAllocator{}
	store := &fakeStore{}
	svc := New(alloc, store, 0)
	before := testutil.ToFloat64(obs.LinksCreatedTotal.WithLabelValues("true"))

	link, err := svc.Create(context.Background(), CreateInput{OriginalURL: "https://example.com", CustomAlias: "my-alias"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "my-alias", link.ShortCode)
	assert.Equal(t, "my-alias", link.CustomAlias)
	assert.Same(t, link, store.inserted)

	after := testutil.ToFloat64(obs.LinksCreatedTotal.WithLabelValues("true"))
	assert.Equal(t, before+1, after, "custom-alias creation must be counted as via_custom_alias=true")
}

func TestCreate_RejectsMalformedCustomAlias(t *testing.T) {
	svc := New(&fakeAllocator{}, &fakeStore{}, 0)
	_, err := svc.Create(context.Background(), CreateInput{OriginalURL: "https://example.com", CustomAlias: "x"}, 1)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InvalidFormat, ae.Kind)
}

func TestCreate_CustomAliasAlreadyTaken(t *testing.T) {
	svc := New(&fakeAllocator{}, &fakeStore{rejectAlias: true}, 0)
	_, err := svc.Create(context.Background(), CreateInput{OriginalURL: "https://example.com", CustomAlias: "taken-alias"}, 1)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CustomAliasTaken, ae.Kind)
}

func TestCreate_SetsExpiresAtWhenDefaultTTLConfigured(t *testing.T) {
	svc := New(&fakeAllocator{code: "abc123"}, &fakeStore{}, 30)
	link, err := svc.Create(context.Background(), CreateInput{OriginalURL: "https://example.com"}, 1)
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
}

func TestCreate_RejectsInvalidURL(t *testing.T) {
	svc := New(&fakeAllocator{}, &fakeStore{}, 0)
	_, err := svc.Create(context.Background(), CreateInput{OriginalURL: "not a url"}, 1)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InvalidFormat, ae.Kind)
}
