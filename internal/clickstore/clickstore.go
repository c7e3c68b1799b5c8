// Package clickstore appends enriched click events. Grounded on the
// teacher's CreateClickEvent/GetClickEventsByShortCode
// (utils/database/postgres.go), translated to an append-only Mongo
// collection.
package clickstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// Store is the append-only click_events repository.
type Store struct {
	coll *mongo.Collection
}

// New binds a Store to the "click_events" collection of db.
func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection("click_events")}
}

// Insert unconditionally appends event. Per spec §4.D, callers treat click
// tracking as best-effort: this method reports errors so the ingestor (4.K)
// can log them, but it never blocks or retries internally.
func (s *Store) Insert(ctx context.Context, event *model.ClickEvent) error {
	defer func(start time.Time) {
		obs.DatabaseOperationDuration.WithLabelValues("insert_click_event").Observe(time.Since(start).Seconds())
	}(time.Now())
	event.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, event); err != nil {
		return apperr.Wrap(apperr.DatabaseError, err).WithContext("shortCode", event.ShortCode)
	}
	return nil
}

// EnsureIndexes creates the non-unique indexes this append-only collection
// needs for time-ordered per-code reads.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shortCode", Value: 1}, {Key: "clickedAt", Value: -1}},
	})
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err)
	}
	return nil
}
