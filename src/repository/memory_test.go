package repository

import (
	"context"
	"testing"
	"time"

	app "imaginify/src/app"
	cfg "imaginify/src/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func TestNewDataBase(t *testing.T) {
	_, err := NewDataBase(nil, zap.NewNop())
	assert.Error(t, err)

	config := &cfg.Properties{}
	config.Mongo.URL = memoryURL
	db, err := NewDataBase(config, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &InMemoryDB{}, db)

	config.Mongo.URL = "mongodb://localhost:27017"
	db, err = NewDataBase(config, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MongoDB{}, db)
}

func TestInMemoryDB(t *testing.T) {
	ctx := context.Background()
	db := NewInMemoryDB()
	require.NoError(t, db.Connect(ctx))

	user := &app.User{ClerkID: "subject-1", CreditBalance: 10}

	t.Run("Users", func(t *testing.T) {
		require.NoError(t, db.CreateUser(ctx, user))
		assert.False(t, user.ID.IsZero())
		assert.ErrorIs(t, db.CreateUser(ctx, &app.User{ClerkID: "subject-1"}), app.ErrUserExists)

		found, err := db.FindUserByClerkID(ctx, "subject-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		_, err = db.FindUserByID(ctx, bson.NewObjectID())
		assert.ErrorIs(t, err, app.ErrUserNotFound)

		updated, err := db.UpdateUser(ctx, "subject-1", app.UserProfile{FirstName: "Ada", LastName: "Lovelace"})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", updated.DisplayName())
	})

	t.Run("IncrementCredits", func(t *testing.T) {
		u, err := db.IncrementCredits(ctx, user.ID, -3)
		require.NoError(t, err)
		assert.Equal(t, 7, u.CreditBalance)

		_, err = db.IncrementCredits(ctx, bson.NewObjectID(), 1)
		assert.ErrorIs(t, err, app.ErrUserNotFound)
	})

	t.Run("Images", func(t *testing.T) {
		other := bson.NewObjectID()
		base := time.Now()
		for i := 0; i < 5; i++ {
			author := user.ID
			if i%2 == 1 {
				author = other
			}
			img := &app.Image{
				Title:     "image",
				PublicID:  "imaginify/p" + string(rune('a'+i)),
				Author:    author,
				Config:    map[string]any{"restore": true},
				UpdatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, db.CreateImage(ctx, img))
		}

		page, total, err := db.ListImages(ctx, app.ImageQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, "imaginify/pe", page[0].PublicID, "newest first")

		owned, total, err := db.ListImages(ctx, app.ImageQuery{Author: &user.ID, Skip: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, owned, 2)

		searched, total, err := db.ListImages(ctx, app.ImageQuery{PublicIDs: []string{"imaginify/pb", "missing"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "imaginify/pb", searched[0].PublicID)

		none, total, err := db.ListImages(ctx, app.ImageQuery{PublicIDs: []string{}})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, none)

		count, err := db.CountImages(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("Images are copied", func(t *testing.T) {
		img := &app.Image{Title: "x", Config: map[string]any{"remove": map[string]any{"prompt": "cat"}}}
		require.NoError(t, db.CreateImage(ctx, img))
		img.Config["remove"].(map[string]any)["prompt"] = "dog"

		stored, err := db.FindImageByID(ctx, img.ID)
		require.NoError(t, err)
		assert.Equal(t, "cat", stored.Config["remove"].(map[string]any)["prompt"])

		require.NoError(t, db.DeleteImage(ctx, img.ID))
		assert.ErrorIs(t, db.DeleteImage(ctx, img.ID), app.ErrImageNotFound)
		assert.ErrorIs(t, db.UpdateImage(ctx, img), app.ErrImageNotFound)
	})

	t.Run("Transactions", func(t *testing.T) {
		tx := &app.Transaction{StripeID: "cs_1", Credits: 120, Buyer: user.ID, CreatedAt: time.Now()}
		require.NoError(t, db.CreateTransaction(ctx, tx))
		assert.ErrorIs(t, db.CreateTransaction(ctx, &app.Transaction{StripeID: "cs_1"}), app.ErrDuplicateTransaction)

		txs, err := db.ListTransactions(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, 120, txs[0].Credits)
	})
}
