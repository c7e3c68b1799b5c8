package allocator

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// fakeStore rejects the first n inserts with a duplicate-key error, then
// accepts. It also records the length of every attempted short code.
type fakeStore struct {
	rejectCount int
	calls       int
	codeLengths []int
}

func (f *fakeStore) Insert(ctx context.Context, link *model.Link) error {
	f.codeLengths = append(f.codeLengths, len(link.ShortCode))
	f.calls++
	if f.calls <= f.rejectCount {
		return linkstore.ErrDuplicateCode
	}
	return nil
}

func fastParams() Params {
	p := DefaultParams()
	p.BaseRetryDelay = time.Millisecond
	p.MaxRetryDelay = 5 * time.Millisecond
	return p
}

func TestAllocate_SucceedsOnFirstTry(t *testing.T) {
	store := &fakeStore{rejectCount: 0}
	a := New(store, fastParams())

	code, err := a.Allocate(context.Background(), &model.Link{})
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, uint64(0), a.CollisionCount())
}

func TestAllocate_RetriesThenSucceeds(t *testing.T) {
	store := &fakeStore{rejectCount: 9}
	a := New(store, fastParams())
	before := testutil.ToFloat64(obs.ShortCodeCollisionsTotal)

	code, err := a.Allocate(context.Background(), &model.Link{})
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, uint64(9), a.CollisionCount())

	after := testutil.ToFloat64(obs.ShortCodeCollisionsTotal)
	assert.Equal(t, before+9, after, "collisions observed must also reach the process-wide metric")
}

func TestAllocate_FailsAfterMaxRetries(t *testing.T) {
	store := &fakeStore{rejectCount: 100}
	a := New(store, fastParams())

	_, err := a.Allocate(context.Background(), &model.Link{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to allocate")

	// length should have grown from 6 to 9 (3 growths every 3 attempts
	// across 10 attempts).
	assert.Equal(t, 9, store.codeLengths[len(store.codeLengths)-1])
}

func TestAllocate_PropagatesNonCollisionErrors(t *testing.T) {
	store := &erroringStore{}
	a := New(store, fastParams())

	_, err := a.Allocate(context.Background(), &model.Link{})
	require.Error(t, err)
}

type erroringStore struct{}

func (erroringStore) Insert(ctx context.Context, link *model.Link) error {
	return assert.AnError
}
