// Package linkstore is the authoritative persistence layer for Link
// records. Grounded on the teacher's utils/database/postgres.go repository
// shape (CreateURL/GetURLByShortCode/UpdateClickCount), translated from
// pgx/sqlx to mongo-driver per SPEC_FULL.md §3, and on its
// CreateIndexes (teacher: url_mappings unique/compound indexes) expressed
// as Mongo index models.
package linkstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// ErrDuplicateCode is returned by Insert when shortCode already exists
// among non-deleted links. The allocator (4.H) treats this as a collision
// signal, not a fatal error.
var ErrDuplicateCode = errors.New("linkstore: duplicate short code")

// Store is the Mongo-backed Link repository.
type Store struct {
	coll *mongo.Collection
}

// Config mirrors the MONGODB_* environment variables from spec §6.
type Config struct {
	URI            string
	Database       string
	ConnTimeout    time.Duration
	QueryTimeout   time.Duration
	DisconnTimeout time.Duration
	MinPoolSize    uint64
	MaxPoolSize    uint64
}

// Connect dials Mongo with the configured pool bounds and returns a Store
// bound to the "links" collection.
func Connect(ctx context.Context, cfg Config) (*Store, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.DatabaseError, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, apperr.Wrap(apperr.DatabaseError, err)
	}

	coll := client.Database(cfg.Database).Collection("links")
	return &Store{coll: coll}, client, nil
}

// EnsureIndexes creates the unique/TTL/compound indexes spec §6 names.
// Analogue of the teacher's PostgreSQL.CreateIndexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "shortCode", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "isDeleted", Value: false}}),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, err := s.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err)
	}
	return nil
}

// Insert persists a new Link, setting CreatedAt/UpdatedAt. A unique-index
// violation on shortCode surfaces as ErrDuplicateCode.
func (s *Store) Insert(ctx context.Context, link *model.Link) error {
	defer observeDuration("insert", time.Now())
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now
	link.ID = primitive.NewObjectID()

	_, err := s.coll.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCode
		}
		return apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", link.ShortCode)
	}
	return nil
}

// Exists reports whether a non-deleted link with shortCode already exists.
// Neither the allocator (4.H) nor the custom-alias path in 4.I calls it:
// both rely on Insert's unique index to detect a taken code.
func (s *Store) Exists(ctx context.Context, shortCode string) (bool, error) {
	defer observeDuration("exists", time.Now())
	n, err := s.coll.CountDocuments(ctx, bson.M{"shortCode": shortCode, "isDeleted": false}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", shortCode)
	}
	return n > 0, nil
}

// FindByShortCode resolves a non-deleted link and applies the post-filters
// spec §4.C mandates, in order: inactive, then expired, then OK. Filtering
// in-memory after the store query — rather than in the query itself — lets
// the caller distinguish "no such code" from "exists but dead".
func (s *Store) FindByShortCode(ctx context.Context, shortCode string) (model.LinkProjection, error) {
	defer observeDuration("find_by_short_code", time.Now())
	var link model.Link
	proj := bson.M{"originalUrl": 1, "isActive": 1, "ownerId": 1, "expiresAt": 1}
	err := s.coll.FindOne(ctx, bson.M{"shortCode": shortCode, "isDeleted": false}, options.FindOne().SetProjection(proj)).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.LinkProjection{}, apperr.New(apperr.URLNotFound).WithContext("shortCode", shortCode)
		}
		return model.LinkProjection{}, apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", shortCode)
	}

	if !link.IsActive {
		return model.LinkProjection{}, apperr.New(apperr.URLInactive).WithContext("shortCode", shortCode)
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now().UTC()) {
		return model.LinkProjection{}, apperr.New(apperr.URLExpired).WithContext("shortCode", shortCode)
	}

	return model.LinkProjection{
		OriginalURL: link.OriginalURL,
		IsActive:    link.IsActive,
		OwnerID:     link.OwnerID,
		ExpiresAt:   link.ExpiresAt,
	}, nil
}

// IncrementClickCount atomically increments clickCount and refreshes
// updatedAt. A zero-matched update maps to URL_NOT_FOUND.
func (s *Store) IncrementClickCount(ctx context.Context, shortCode string) error {
	defer observeDuration("increment_click_count", time.Now())
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"shortCode": shortCode, "isDeleted": false},
		bson.M{"$inc": bson.M{"clickCount": 1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", shortCode)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.URLNotFound).WithContext("shortCode", shortCode)
	}
	return nil
}

func observeDuration(operation string, start time.Time) {
	obs.DatabaseOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
