package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	app "imaginify/src/app"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	usersCollection        = "users"
	imagesCollection       = "images"
	transactionsCollection = "transactions"
)

// MongoDB connects on first use and keeps the client for the life of the
// process. A failed attempt is retried by the next caller.
type MongoDB struct {
	url      string
	database string
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoDB(url, database string, timeout time.Duration, logger *zap.Logger) *MongoDB {
	return &MongoDB{url: url, database: database, timeout: timeout, logger: logger}
}

func (m *MongoDB) Connect(ctx context.Context) error {
	_, err := m.handle(ctx)
	return err
}

func (m *MongoDB) handle(ctx context.Context) (*mongo.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}
	if m.url == "" {
		return nil, fmt.Errorf("missing mongo url")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(m.url).SetConnectTimeout(m.timeout))
	if err != nil {
		return nil, fmt.Errorf("can not connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo not respond: %w", err)
	}
	m.client = client
	m.db = client.Database(m.database)
	m.logger.Info("connected to mongo", zap.String("database", m.database))
	return m.db, nil
}

func (m *MongoDB) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := m.handle(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client, m.db = nil, nil
	return err
}

func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "clerkId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		imagesCollection: {
			{Keys: bson.D{{Key: "author", Value: 1}, {Key: "updatedAt", Value: -1}}},
			{Keys: bson.D{{Key: "publicId", Value: 1}}},
			{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "stripeId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		coll, err := m.collection(ctx, name)
		if err != nil {
			return err
		}
		created, err := coll.Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("can not create indexes on %s: %w", name, err)
		}
		m.logger.Info("ensured indexes", zap.String("collection", name), zap.Strings("indexes", created))
	}
	return nil
}

func (m *MongoDB) CreateUser(ctx context.Context, user *app.User) error {
	coll, err := m.collection(ctx, usersCollection)
	if err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return app.ErrUserExists
		}
		return fmt.Errorf("can not insert user: %w", err)
	}
	return nil
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*app.User, error) {
	coll, err := m.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	var user app.User
	if err := coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app.ErrUserNotFound
		}
		return nil, fmt.Errorf("can not find user: %w", err)
	}
	return &user, nil
}

func (m *MongoDB) FindUserByClerkID(ctx context.Context, clerkID string) (*app.User, error) {
	return m.findUser(ctx, bson.M{"clerkId": clerkID})
}

func (m *MongoDB) FindUserByID(ctx context.Context, id bson.ObjectID) (*app.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *MongoDB) updateUser(ctx context.Context, filter, update bson.M) (*app.User, error) {
	coll, err := m.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	var user app.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app.ErrUserNotFound
		}
		return nil, fmt.Errorf("can not update user: %w", err)
	}
	return &user, nil
}

func (m *MongoDB) UpdateUser(ctx context.Context, clerkID string, profile app.UserProfile) (*app.User, error) {
	return m.updateUser(ctx, bson.M{"clerkId": clerkID}, bson.M{"$set": bson.M{
		"firstName": profile.FirstName,
		"lastName":  profile.LastName,
		"username":  profile.Username,
		"photo":     profile.Photo,
		"updatedAt": time.Now().UTC(),
	}})
}

func (m *MongoDB) IncrementCredits(ctx context.Context, id bson.ObjectID, delta int) (*app.User, error) {
	return m.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"creditBalance": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (m *MongoDB) CreateImage(ctx context.Context, image *app.Image) error {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return err
	}
	if image.ID.IsZero() {
		image.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, image); err != nil {
		return fmt.Errorf("can not insert image: %w", err)
	}
	return nil
}

func (m *MongoDB) FindImageByID(ctx context.Context, id bson.ObjectID) (*app.Image, error) {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return nil, err
	}
	var image app.Image
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&image); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app.ErrImageNotFound
		}
		return nil, fmt.Errorf("can not find image: %w", err)
	}
	image.Config = normalizeConfig(image.Config)
	return &image, nil
}

func (m *MongoDB) UpdateImage(ctx context.Context, image *app.Image) error {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return err
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": image.ID}, image)
	if err != nil {
		return fmt.Errorf("can not update image: %w", err)
	}
	if res.MatchedCount == 0 {
		return app.ErrImageNotFound
	}
	return nil
}

func (m *MongoDB) DeleteImage(ctx context.Context, id bson.ObjectID) error {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("can not delete image: %w", err)
	}
	if res.DeletedCount == 0 {
		return app.ErrImageNotFound
	}
	return nil
}

// ListImages runs the page query and the total count concurrently.
func (m *MongoDB) ListImages(ctx context.Context, query app.ImageQuery) ([]*app.Image, int64, error) {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return nil, 0, err
	}
	filter := bson.M{}
	if query.Author != nil {
		filter["author"] = *query.Author
	}
	if query.PublicIDs != nil {
		filter["publicId"] = bson.M{"$in": query.PublicIDs}
	}

	var (
		images []*app.Image
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetSkip(query.Skip)
		if query.Limit > 0 {
			opts.SetLimit(query.Limit)
		}
		cursor, err := coll.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("can not list images: %w", err)
		}
		images = make([]*app.Image, 0)
		if err := cursor.All(gctx, &images); err != nil {
			return err
		}
		for _, img := range images {
			img.Config = normalizeConfig(img.Config)
		}
		return nil
	})
	g.Go(func() error {
		n, err := coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("can not count images: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

func (m *MongoDB) CountImages(ctx context.Context) (int64, error) {
	coll, err := m.collection(ctx, imagesCollection)
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, bson.M{})
}

func (m *MongoDB) CreateTransaction(ctx context.Context, tx *app.Transaction) error {
	coll, err := m.collection(ctx, transactionsCollection)
	if err != nil {
		return err
	}
	if tx.ID.IsZero() {
		tx.ID = bson.NewObjectID()
	}
	if _, err := coll.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return app.ErrDuplicateTransaction
		}
		return fmt.Errorf("can not insert transaction: %w", err)
	}
	return nil
}

func (m *MongoDB) ListTransactions(ctx context.Context, buyer bson.ObjectID) ([]*app.Transaction, error) {
	coll, err := m.collection(ctx, transactionsCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, bson.M{"buyer": buyer},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("can not list transactions: %w", err)
	}
	result := make([]*app.Transaction, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeConfig turns nested documents decoded as bson.D or bson.M back
// into plain maps so the CDN URL builder sees the shape it was given.
func normalizeConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}
	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.M:
		return normalizeConfig(t)
	case map[string]any:
		return normalizeConfig(t)
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
