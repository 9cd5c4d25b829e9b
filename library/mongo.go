package library

import (
	"context"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"library-desk/config"
)

const (
	usersCollection = "users"
	booksCollection = "books"
)

type accountDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password *string            `bson:"password,omitempty"`
	Name     *string            `bson:"name,omitempty"`
	IsAdmin  *bool              `bson:"is_admin,omitempty"`
}

type bookDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Author      string             `bson:"author"`
	ISBN        string             `bson:"isbn"`
	IsAvailable *bool              `bson:"is_available,omitempty"`
}

// storedBook is the read shape of a `books` document. The collection has no
// enforced schema, so text fields and the flag are decoded raw and
// normalized by toRecord.
type storedBook struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       bson.RawValue      `bson:"title"`
	Author      bson.RawValue      `bson:"author"`
	ISBN        bson.RawValue      `bson:"isbn"`
	IsAvailable bson.RawValue      `bson:"is_available"`
}

func (d storedBook) toRecord() BookRecord {
	return BookRecord{
		ID:          mongoID(d.ID),
		Title:       rawText(d.Title),
		Author:      rawText(d.Author),
		ISBN:        rawText(d.ISBN),
		IsAvailable: rawFlag(d.IsAvailable),
	}
}

// rawText renders a scalar as text; absent and null become "".
func rawText(v bson.RawValue) string {
	switch v.Type {
	case 0, bson.TypeNull:
		return ""
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case bson.TypeDouble:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	default:
		return v.String()
	}
}

// rawFlag keeps an absent flag as nil. An explicit null or a non-boolean
// value counts as not available.
func rawFlag(v bson.RawValue) *bool {
	if v.Type == 0 {
		return nil
	}
	b, ok := v.BooleanOK()
	return Ptr(ok && b)
}

// MongoGateway reads and updates the `users` and `books` collections.
type MongoGateway struct {
	client *mongo.Client
	users  *mongo.Collection
	books  *mongo.Collection
	log    *zap.Logger
}

var _ StoreGateway = (*MongoGateway)(nil)

// ConnectMongo connects and pings within cfg.ConnectTimeout. An unreachable
// server leaves the gateway disconnected.
func ConnectMongo(ctx context.Context, cfg config.Mongo, log *zap.Logger) *MongoGateway {
	g := &MongoGateway{log: log.Named("mongo")}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		g.log.Error("connect, continuing offline", zap.Error(err))
		return g
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		g.log.Error("ping, continuing offline", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return g
	}

	g.client = client
	g.bind(client.Database(cfg.Database))
	g.log.Info("connected", zap.String("database", cfg.Database))
	return g
}

func newMongoGateway(db *mongo.Database, log *zap.Logger) *MongoGateway {
	g := &MongoGateway{log: log.Named("mongo")}
	g.bind(db)
	return g
}

func (g *MongoGateway) bind(db *mongo.Database) {
	g.users = db.Collection(usersCollection)
	g.books = db.Collection(booksCollection)
}

func (g *MongoGateway) Connected() bool { return g.users != nil }

func (g *MongoGateway) Close(ctx context.Context) error {
	if g.client == nil {
		return nil
	}
	err := g.client.Disconnect(ctx)
	g.client, g.users, g.books = nil, nil, nil
	return err
}

func mongoID(oid primitive.ObjectID) RecordID {
	return NewRecordID(oid, oid.Hex())
}

func (g *MongoGateway) FindAccountByUsername(ctx context.Context, username string) (AccountRecord, bool, error) {
	if !g.Connected() {
		return AccountRecord{}, false, nil
	}

	filter := bson.M{"username": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(username) + "$",
		Options: "i",
	}}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var doc accountDocument
	err := g.users.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return AccountRecord{}, false, nil
	}
	if err != nil {
		return AccountRecord{}, false, errors.Wrap(err, "find account")
	}

	return AccountRecord{
		ID:       mongoID(doc.ID),
		Username: doc.Username,
		Password: doc.Password,
		Name:     doc.Name,
		IsAdmin:  doc.IsAdmin,
	}, true, nil
}

// ListAllBooks sorts by _id, which follows insertion order for
// driver-generated ObjectIDs.
func (g *MongoGateway) ListAllBooks(ctx context.Context) ([]BookRecord, error) {
	if !g.Connected() {
		return []BookRecord{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := g.books.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	defer cur.Close(ctx)

	books := []BookRecord{}
	for cur.Next(ctx) {
		var doc storedBook
		if err := cur.Decode(&doc); err != nil {
			g.log.Warn("skip undecodable book", zap.Stringer("_id", cur.Current.Lookup("_id")), zap.Error(err))
			continue
		}
		books = append(books, doc.toRecord())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	return books, nil
}

// SetBookAvailability matches the id and a flag that differs from the
// target, so racing checkouts cannot both report a modification. A missing
// flag counts as available.
func (g *MongoGateway) SetBookAvailability(ctx context.Context, id RecordID, available bool) (bool, error) {
	if !g.Connected() {
		return false, nil
	}
	oid, ok := id.Key().(primitive.ObjectID)
	if !ok {
		return false, nil
	}

	filter := bson.M{"_id": oid, "is_available": bson.M{"$ne": available}}
	if available {
		// An absent flag already means available.
		filter["is_available"] = false
	}
	update := bson.M{"$set": bson.M{"is_available": available}}

	res, err := g.books.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, errors.Wrap(err, "update book availability")
	}
	return res.ModifiedCount == 1, nil
}

func (g *MongoGateway) InsertAccount(ctx context.Context, rec AccountRecord) (RecordID, error) {
	if !g.Connected() {
		return RecordID{}, ErrStoreOffline
	}
	doc := accountDocument{
		ID:       primitive.NewObjectID(),
		Username: rec.Username,
		Password: rec.Password,
		Name:     rec.Name,
		IsAdmin:  rec.IsAdmin,
	}
	if _, err := g.users.InsertOne(ctx, doc); err != nil {
		return RecordID{}, errors.Wrap(err, "insert account")
	}
	return mongoID(doc.ID), nil
}

func (g *MongoGateway) InsertBook(ctx context.Context, rec BookRecord) (RecordID, error) {
	if !g.Connected() {
		return RecordID{}, ErrStoreOffline
	}
	doc := bookDocument{
		ID:          primitive.NewObjectID(),
		Title:       rec.Title,
		Author:      rec.Author,
		ISBN:        rec.ISBN,
		IsAvailable: rec.IsAvailable,
	}
	if _, err := g.books.InsertOne(ctx, doc); err != nil {
		return RecordID{}, errors.Wrap(err, "insert book")
	}
	return mongoID(doc.ID), nil
}
