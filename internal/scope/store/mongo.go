package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoEngine adapts the store contract onto MongoDB's native collection
// operations. The native ObjectID becomes a hex string at the boundary so
// the facade's id type is a string regardless of engine; ids that do not
// parse back as ObjectIDs are looked up as raw string _id values.
type MongoEngine struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// NewMongoEngine connects to MongoDB and pings the primary.
func NewMongoEngine(ctx context.Context, uri, dbName string, logger zerolog.Logger) (*MongoEngine, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongodb: %v", ErrBackendUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping mongodb: %v", ErrBackendUnavailable, err)
	}

	return &MongoEngine{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

func (e *MongoEngine) Name() string { return "mongodb" }

func (e *MongoEngine) Close(ctx context.Context) error {
	return e.client.Disconnect(ctx)
}

func (e *MongoEngine) Collections(ctx context.Context) ([]string, error) {
	names, err := e.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, opErr(e.Name(), "collections", err)
	}
	sort.Strings(names)
	return names, nil
}

func (e *MongoEngine) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	now := time.Now()
	doc := make(bson.M, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	if v, ok := doc["id"]; ok {
		doc["_id"] = v
		delete(doc, "id")
	}
	if _, ok := doc["created_at"]; !ok {
		doc["created_at"] = now
	}
	if _, ok := doc["updated_at"]; !ok {
		doc["updated_at"] = now
	}

	res, err := e.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", opErr(e.Name(), "create", err)
	}
	return mongoIDString(res.InsertedID), nil
}

func (e *MongoEngine) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := e.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, opErr(e.Name(), "get", err)
	}
	return fromBSON(raw), nil
}

func (e *MongoEngine) Update(ctx context.Context, collection, id string, fields Fields) (int64, error) {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		// ID and created_at are immutable.
		if k == "id" || k == "_id" || k == "created_at" || k == "updated_at" {
			continue
		}
		set[k] = v
	}
	set["updated_at"] = time.Now()

	res, err := e.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return 0, opErr(e.Name(), "update", err)
	}
	return res.ModifiedCount, nil
}

func (e *MongoEngine) Delete(ctx context.Context, collection, id string) (int64, error) {
	res, err := e.db.Collection(collection).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return 0, opErr(e.Name(), "delete", err)
	}
	return res.DeletedCount, nil
}

func (e *MongoEngine) List(ctx context.Context, collection string, opts ListOptions) ([]Document, error) {
	findOpts := options.Find().SetSkip(int64(opts.Skip))
	if limit := opts.limit(); limit >= 0 {
		findOpts = findOpts.SetLimit(int64(limit))
	}
	if len(opts.Sort) > 0 {
		findOpts = findOpts.SetSort(buildMongoSort(opts.Sort))
	}

	cur, err := e.db.Collection(collection).Find(ctx, buildMongoFilter(opts.Query), findOpts)
	if err != nil {
		return nil, opErr(e.Name(), "list", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, opErr(e.Name(), "list", err)
	}

	docs := make([]Document, len(raw))
	for i, m := range raw {
		docs[i] = fromBSON(m)
	}
	return docs, nil
}

func (e *MongoEngine) Count(ctx context.Context, collection string, query Query) (int64, error) {
	n, err := e.db.Collection(collection).CountDocuments(ctx, buildMongoFilter(query))
	if err != nil {
		return 0, opErr(e.Name(), "count", err)
	}
	return n, nil
}

// idFilter builds the _id lookup, preferring the native ObjectID form.
func idFilter(id string) bson.D {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: oid}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

// buildMongoFilter translates a Query into the native equality filter.
// Keys are emitted in sorted order so generated filters are deterministic.
func buildMongoFilter(query Query) bson.D {
	filter := bson.D{}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key, value := k, query[k]
		if key == "id" {
			key = "_id"
			if s, ok := value.(string); ok {
				if oid, err := primitive.ObjectIDFromHex(s); err == nil {
					value = oid
				}
			}
		}
		filter = append(filter, bson.E{Key: key, Value: value})
	}
	return filter
}

func buildMongoSort(s Sort) bson.D {
	out := make(bson.D, 0, len(s))
	for _, key := range s {
		dir := 1
		if key.Direction < 0 {
			dir = -1
		}
		field := key.Field
		if field == "id" {
			field = "_id"
		}
		out = append(out, bson.E{Key: field, Value: dir})
	}
	return out
}

// fromBSON maps a raw mongo document onto the facade vocabulary.
func fromBSON(raw bson.M) Document {
	doc := Document{Fields: make(Fields, len(raw))}
	for k, v := range raw {
		switch k {
		case "_id":
			doc.ID = mongoIDString(v)
		case "created_at":
			if ts, ok := normalizeBSON(v).(time.Time); ok {
				doc.CreatedAt = ts
			}
		case "updated_at":
			if ts, ok := normalizeBSON(v).(time.Time); ok {
				doc.UpdatedAt = ts
			}
		default:
			doc.Fields[k] = normalizeBSON(v)
		}
	}
	return doc
}

// normalizeBSON converts driver-specific types back into the plain field
// vocabulary: DateTime to time.Time, ObjectID to hex, A to []any.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	default:
		return v
	}
}

func mongoIDString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
