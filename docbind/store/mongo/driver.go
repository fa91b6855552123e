// Package mongo implements types.Store on MongoDB.
//
// A collection path maps to one MongoDB collection named by its collection
// segments joined with dots, so "authors/a1/books" lives in "authors.books".
// Each stored document carries its full path in _id and the path of its
// parent document in _parent, which scopes sub-collection queries.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/docbind/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	idField     = "_id"
	parentField = "_parent"
)

// Store is a types.Store backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	idFunc func() string
}

var _ types.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDFunc sets the generator for identifiers of added documents.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		s.idFunc = fn
	}
}

// Connect dials uri and returns a Store on database. The server is pinged
// before returning.
func Connect(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	if database == "" {
		return nil, errors.New("mongo store: database name is empty")
	}
	clientOpts := mopt.Client().ApplyURI(uri)
	clientOpts.SetConnectTimeout(10 * time.Second).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s := New(client.Database(database), opts...)
	s.client = client
	return s, nil
}

// New wraps an existing database handle. Close does not disconnect a client
// it did not create.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: zap.NewNop(),
		idFunc: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) coll(collectionPath string) *mongo.Collection {
	return s.db.Collection(collectionName(collectionPath))
}

// Add implements types.Store.
func (s *Store) Add(ctx context.Context, collection string, data map[string]interface{}) (types.DocRef, error) {
	if err := types.ValidateCollectionPath(collection); err != nil {
		return types.DocRef{}, err
	}
	ref := types.NewDocRef(collection, s.idFunc())
	doc, err := storedDocument(ref, data)
	if err != nil {
		return types.DocRef{}, err
	}
	if _, err := s.coll(collection).InsertOne(ctx, doc); err != nil {
		return types.DocRef{}, err
	}
	return ref, nil
}

// Set implements types.Store. A merge updates only the given fields,
// otherwise the document is replaced. Both create missing documents.
func (s *Store) Set(ctx context.Context, ref types.DocRef, data map[string]interface{}, merge bool) error {
	if err := types.ValidateDocumentPath(ref.Path); err != nil {
		return err
	}
	doc, err := storedDocument(ref, data)
	if err != nil {
		return err
	}
	filter := bson.M{idField: ref.Path}
	coll := s.coll(ref.Collection())

	if merge {
		delete(doc, idField)
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": doc}, mopt.Update().SetUpsert(true))
	} else {
		_, err = coll.ReplaceOne(ctx, filter, doc, mopt.Replace().SetUpsert(true))
	}
	return err
}

// Get implements types.Store.
func (s *Store) Get(ctx context.Context, ref types.DocRef) (types.Snapshot, error) {
	if err := types.ValidateDocumentPath(ref.Path); err != nil {
		return types.Snapshot{}, err
	}
	var raw bson.M
	err := s.coll(ref.Collection()).FindOne(ctx, bson.M{idField: ref.Path}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Snapshot{}, fmt.Errorf("%w: %s", types.ErrNotFound, ref.Path)
	}
	if err != nil {
		return types.Snapshot{}, err
	}
	return snapshotOf(raw)
}

// Query implements types.Store.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	fromEnd := q.Limit != nil && q.Limit.FromEnd
	findOpts := mopt.Find().SetSort(buildSort(q, fromEnd))
	if q.Limit != nil {
		findOpts.SetLimit(int64(q.Limit.N))
	}

	cursor, err := s.coll(q.Collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []types.Snapshot
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		snap, err := snapshotOf(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if fromEnd {
		reverse(out)
	}
	s.logger.Debug("mongo query",
		zap.String("collection", collectionName(q.Collection)),
		zap.Int("results", len(out)))
	return out, nil
}

// Close disconnects the client when the Store created it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// collectionName maps "a/x/b/y/c" to "a.b.c".
func collectionName(collectionPath string) string {
	segments := strings.Split(collectionPath, "/")
	names := make([]string, 0, len(segments)/2+1)
	for i := 0; i < len(segments); i += 2 {
		names = append(names, segments[i])
	}
	return strings.Join(names, ".")
}

// parentOf returns the document path owning a collection, or "" for a
// top-level collection.
func parentOf(collectionPath string) string {
	i := strings.LastIndex(collectionPath, "/")
	if i < 0 {
		return ""
	}
	return collectionPath[:i]
}

func reverse(snaps []types.Snapshot) {
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
}
