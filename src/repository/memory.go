package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	app "imaginify/src/app"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// InMemoryDB keeps every collection in maps. Documents are copied on the
// way in and out so callers never share memory with the store.
type InMemoryDB struct {
	mu           sync.RWMutex
	users        map[bson.ObjectID]app.User
	images       map[bson.ObjectID]app.Image
	transactions map[bson.ObjectID]app.Transaction
}

func NewInMemoryDB() *InMemoryDB {
	db := &InMemoryDB{}
	_ = db.Connect(context.Background())
	return db
}

func (i *InMemoryDB) Connect(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.users == nil {
		i.users = make(map[bson.ObjectID]app.User)
		i.images = make(map[bson.ObjectID]app.Image)
		i.transactions = make(map[bson.ObjectID]app.Transaction)
	}
	return nil
}

func (i *InMemoryDB) EnsureIndexes(context.Context) error { return nil }

func (i *InMemoryDB) Close(context.Context) error { return nil }

func (i *InMemoryDB) CreateUser(_ context.Context, user *app.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, u := range i.users {
		if u.ClerkID == user.ClerkID {
			return app.ErrUserExists
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	i.users[user.ID] = *user
	return nil
}

func (i *InMemoryDB) FindUserByClerkID(_ context.Context, clerkID string) (*app.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, u := range i.users {
		if u.ClerkID == clerkID {
			return &u, nil
		}
	}
	return nil, app.ErrUserNotFound
}

func (i *InMemoryDB) FindUserByID(_ context.Context, id bson.ObjectID) (*app.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	u, ok := i.users[id]
	if !ok {
		return nil, app.ErrUserNotFound
	}
	return &u, nil
}

func (i *InMemoryDB) UpdateUser(_ context.Context, clerkID string, profile app.UserProfile) (*app.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, u := range i.users {
		if u.ClerkID != clerkID {
			continue
		}
		u.FirstName, u.LastName = profile.FirstName, profile.LastName
		u.Username, u.Photo = profile.Username, profile.Photo
		u.UpdatedAt = time.Now().UTC()
		i.users[id] = u
		return &u, nil
	}
	return nil, app.ErrUserNotFound
}

func (i *InMemoryDB) IncrementCredits(_ context.Context, id bson.ObjectID, delta int) (*app.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	u, ok := i.users[id]
	if !ok {
		return nil, app.ErrUserNotFound
	}
	u.CreditBalance += delta
	u.UpdatedAt = time.Now().UTC()
	i.users[id] = u
	return &u, nil
}

func (i *InMemoryDB) CreateImage(_ context.Context, image *app.Image) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if image.ID.IsZero() {
		image.ID = bson.NewObjectID()
	}
	i.images[image.ID] = copyImage(*image)
	return nil
}

func (i *InMemoryDB) FindImageByID(_ context.Context, id bson.ObjectID) (*app.Image, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	img, ok := i.images[id]
	if !ok {
		return nil, app.ErrImageNotFound
	}
	img = copyImage(img)
	return &img, nil
}

func (i *InMemoryDB) UpdateImage(_ context.Context, image *app.Image) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.images[image.ID]; !ok {
		return app.ErrImageNotFound
	}
	i.images[image.ID] = copyImage(*image)
	return nil
}

func (i *InMemoryDB) DeleteImage(_ context.Context, id bson.ObjectID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.images[id]; !ok {
		return app.ErrImageNotFound
	}
	delete(i.images, id)
	return nil
}

func (i *InMemoryDB) ListImages(_ context.Context, query app.ImageQuery) ([]*app.Image, int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var allowed map[string]bool
	if query.PublicIDs != nil {
		allowed = make(map[string]bool, len(query.PublicIDs))
		for _, id := range query.PublicIDs {
			allowed[id] = true
		}
	}
	matched := make([]app.Image, 0)
	for _, img := range i.images {
		if query.Author != nil && img.Author != *query.Author {
			continue
		}
		if allowed != nil && !allowed[img.PublicID] {
			continue
		}
		matched = append(matched, img)
	}
	sort.Slice(matched, func(a, b int) bool {
		return matched[a].UpdatedAt.After(matched[b].UpdatedAt)
	})

	total := int64(len(matched))
	result := make([]*app.Image, 0)
	for idx := max(query.Skip, 0); idx < total; idx++ {
		if query.Limit > 0 && int64(len(result)) >= query.Limit {
			break
		}
		img := copyImage(matched[idx])
		result = append(result, &img)
	}
	return result, total, nil
}

func (i *InMemoryDB) CountImages(context.Context) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return int64(len(i.images)), nil
}

func (i *InMemoryDB) CreateTransaction(_ context.Context, tx *app.Transaction) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, t := range i.transactions {
		if t.StripeID == tx.StripeID {
			return app.ErrDuplicateTransaction
		}
	}
	if tx.ID.IsZero() {
		tx.ID = bson.NewObjectID()
	}
	i.transactions[tx.ID] = *tx
	return nil
}

func (i *InMemoryDB) ListTransactions(_ context.Context, buyer bson.ObjectID) ([]*app.Transaction, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	result := make([]*app.Transaction, 0)
	for _, t := range i.transactions {
		if t.Buyer == buyer {
			t := t
			result = append(result, &t)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].CreatedAt.After(result[b].CreatedAt) })
	return result, nil
}

func copyImage(img app.Image) app.Image {
	if img.Config != nil {
		img.Config = app.DeepMerge(nil, img.Config)
	}
	return img
}
