package app

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type (
	UserStore interface {
		CreateUser(ctx context.Context, user *User) error
		FindUserByClerkID(ctx context.Context, clerkID string) (*User, error)
		FindUserByID(ctx context.Context, id bson.ObjectID) (*User, error)
		UpdateUser(ctx context.Context, clerkID string, profile UserProfile) (*User, error)
		IncrementCredits(ctx context.Context, id bson.ObjectID, delta int) (*User, error)
	}

	// ImageQuery selects a page of images, newest update first. A nil
	// PublicIDs means no restriction; an empty one matches nothing.
	ImageQuery struct {
		Author    *bson.ObjectID
		PublicIDs []string
		Skip      int64
		Limit     int64
	}

	ImageStore interface {
		CreateImage(ctx context.Context, image *Image) error
		FindImageByID(ctx context.Context, id bson.ObjectID) (*Image, error)
		UpdateImage(ctx context.Context, image *Image) error
		DeleteImage(ctx context.Context, id bson.ObjectID) error
		ListImages(ctx context.Context, query ImageQuery) ([]*Image, int64, error)
		CountImages(ctx context.Context) (int64, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx *Transaction) error
		ListTransactions(ctx context.Context, buyer bson.ObjectID) ([]*Transaction, error)
	}

	Store interface {
		UserStore
		ImageStore
		TransactionStore
	}
)
