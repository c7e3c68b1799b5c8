// Package allocator generates globally unique short codes under
// contention, with collision retries and adaptive length growth. Grounded
// on the teacher's URLService.generateShortCode
// (services/url-shortener-svc/domain/service.go) — crypto/rand + base62,
// retry-until-unique loop — generalized to the four cycled strategies,
// length growth, and backoff spec §4.H specifies.
package allocator

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/linkstore"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Params mirrors the tunables spec §4.H names.
type Params struct {
	InitialLength   int
	MaxRetries      int
	BaseRetryDelay  time.Duration
	MaxRetryDelay   time.Duration
	LengthGrowEvery int
}

// DefaultParams matches spec §4.H's stated defaults.
func DefaultParams() Params {
	return Params{
		InitialLength:   6,
		MaxRetries:      10,
		BaseRetryDelay:  10 * time.Millisecond,
		MaxRetryDelay:   500 * time.Millisecond,
		LengthGrowEvery: 3,
	}
}

// Inserter is the subset of the link store the allocator needs: a
// duplicate-key-detecting insert keyed only on shortCode.
type Inserter interface {
	Insert(ctx context.Context, link *model.Link) error
}

// Allocator mints unique short codes and tracks a process-wide collision
// counter, read by the admin metrics endpoint. Grounded on design note 9's
// "process-wide collisionCount is module state ... implement as an atomic
// counter on the allocator value".
type Allocator struct {
	store          Inserter
	params         Params
	collisionCount atomic.Uint64
}

// New builds an Allocator bound to store with the given params.
func New(store Inserter, params Params) *Allocator {
	return &Allocator{store: store, params: params}
}

// CollisionCount reports the monotonically non-decreasing number of
// duplicate-key rejections observed so far.
func (a *Allocator) CollisionCount() uint64 {
	return a.collisionCount.Load()
}

// strategy generates a code of the given length for a given attempt index.
type strategy func(length int) (string, error)

func (a *Allocator) strategies() [4]strategy {
	s0 := randomBase62
	s1 := uuidSha256Base64url
	s2 := timeBase36WithRandomSuffix
	return [4]strategy{s0, s1, s2, s0}
}

// Allocate mints and reserves a unique short code for link, setting
// link.ShortCode on success and persisting link via the store's insert.
// link must have every field populated except ShortCode; Allocate owns
// ShortCode.
func (a *Allocator) Allocate(ctx context.Context, link *model.Link) (string, error) {
	strategies := a.strategies()
	length := a.params.InitialLength

	attempt := 0
	for attempt < a.params.MaxRetries {
		code, err := strategies[attempt%4](length)
		if err != nil {
			return "", apperr.Wrap(apperr.Internal, err)
		}

		link.ShortCode = code
		err = a.store.Insert(ctx, link)
		if err == nil {
			if attempt > 0 {
				a.collisionCount.Add(uint64(attempt))
				obs.ShortCodeCollisionsTotal.Add(float64(attempt))
			}
			return code, nil
		}

		if err != linkstore.ErrDuplicateCode {
			return "", apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", code)
		}

		attempt++
		if attempt%a.params.LengthGrowEvery == 0 {
			length++
		}

		select {
		case <-time.After(backoff(attempt, a.params.BaseRetryDelay, a.params.MaxRetryDelay)):
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.RequestTimeout, ctx.Err())
		}
	}

	return "", apperr.New(apperr.InvalidInput).WithMessage("unable to allocate")
}

func backoff(attempt int, base, max time.Duration) time.Duration {
	exp := base << uint(attempt)
	if exp <= 0 || exp > max { // overflow or exceeds ceiling
		exp = max
	}
	jitter := randomDuration(exp / 2)
	total := exp + jitter
	if total > max {
		total = max
	}
	return total
}

func randomDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}

func randomBase62(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(out), nil
}

func uuidSha256Base64url(length int) (string, error) {
	id := uuid.New()
	sum := sha256.Sum256([]byte(id.String()))
	encoded := base64.RawURLEncoding.EncodeToString(sum[:])
	if len(encoded) < length {
		length = len(encoded)
	}
	return encoded[:length], nil
}

// timeBase36WithRandomSuffix mixes a base36 time prefix with a random
// suffix so the strategy is genuinely distinct from randomBase62: half
// (rounded up) of the returned code comes from the clock, the rest from
// crypto/rand.
func timeBase36WithRandomSuffix(length int) (string, error) {
	prefixLen := (length + 1) / 2
	suffixLen := length - prefixLen

	now := strconv.FormatInt(time.Now().UnixNano(), 36)
	if len(now) < prefixLen {
		prefixLen = len(now)
		suffixLen = length - prefixLen
	}
	prefix := now[len(now)-prefixLen:]

	suffix, err := randomBase62(suffixLen)
	if err != nil {
		return "", err
	}
	return prefix + suffix, nil
}
