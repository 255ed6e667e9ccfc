package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const (
	homeRoute = "/"

	// MaxPage bounds ?page= so the skip stays well inside int64.
	MaxPage        = 100_000
	maxPageSize    = 100
	maxQueryLength = 256
)

func transformationRoute(id bson.ObjectID) string {
	return "/transformations/" + id.Hex()
}

// OwnerPrefix is the object key prefix of everything userID uploaded.
func OwnerPrefix(folder string, userID bson.ObjectID) string {
	return path.Join(folder, userID.Hex()) + "/"
}

type (
	ImageInput struct {
		ID                 string             `json:"_id,omitempty"`
		Title              string             `json:"title"`
		TransformationType TransformationType `json:"transformationType"`
		PublicID           string             `json:"publicId"`
		SecureURL          string             `json:"secureURL"`
		Width              int                `json:"width"`
		Height             int                `json:"height"`
		Config             map[string]any     `json:"config"`
		AspectRatio        string             `json:"aspectRatio"`
		Prompt             string             `json:"prompt"`
		Color              string             `json:"color"`
	}

	ImageService struct {
		store    Store
		cdn      *CDN
		search   Searcher
		assets   AssetStorage
		cache    *PageCache
		pageSize int64
		logger   *zap.Logger
	}
)

func NewImageService(store Store, cdn *CDN, search Searcher, assets AssetStorage, cache *PageCache, pageSize int, logger *zap.Logger) *ImageService {
	if pageSize <= 0 {
		pageSize = 9
	}
	return &ImageService{
		store:    store,
		cdn:      cdn,
		search:   search,
		assets:   assets,
		cache:    cache,
		pageSize: int64(min(pageSize, maxPageSize)),
		logger:   logger,
	}
}

func (in *ImageInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	in.PublicID = strings.TrimSpace(in.PublicID)
	if in.PublicID == "" {
		return fmt.Errorf("%w: publicId is required", ErrInvalidInput)
	}
	if _, err := LookupTransformation(in.TransformationType); err != nil {
		return err
	}
	if in.AspectRatio != "" {
		if _, ok := LookupAspectRatio(in.AspectRatio); !ok {
			return fmt.Errorf("%w: aspect ratio %q", ErrInvalidInput, in.AspectRatio)
		}
	}
	return nil
}

// checkSource rejects a publicId inside our upload folder that belongs to
// another user. Assets outside the folder are not ours to guard.
func (s *ImageService) checkSource(authorID bson.ObjectID, publicID string) error {
	folder := path.Clean(s.cdn.Folder()) + "/"
	cleaned := path.Clean(publicID)
	if publicID != cleaned || strings.Contains(publicID, "..") {
		return fmt.Errorf("%w: publicId %q", ErrInvalidInput, publicID)
	}
	if strings.HasPrefix(cleaned, folder) && !strings.HasPrefix(cleaned, OwnerPrefix(s.cdn.Folder(), authorID)) {
		return fmt.Errorf("%w: publicId %q", ErrNotOwner, publicID)
	}
	return nil
}

func (in *ImageInput) apply(image *Image, cdn *CDN) error {
	transformationURL, err := cdn.TransformationURL(in.PublicID, in.Width, in.Height, in.Config)
	if err != nil {
		return err
	}
	image.Title = in.Title
	image.TransformationType = in.TransformationType
	image.PublicID = in.PublicID
	image.SecureURL = in.SecureURL
	image.Width = in.Width
	image.Height = in.Height
	image.Config = in.Config
	image.AspectRatio = in.AspectRatio
	image.Prompt = strings.TrimSpace(in.Prompt)
	image.Color = strings.TrimSpace(in.Color)
	image.TransformationURL = transformationURL
	return nil
}

// AddImage saves a new image for an existing author.
func (s *ImageService) AddImage(ctx context.Context, authorID bson.ObjectID, input ImageInput) (*Image, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkSource(authorID, input.PublicID); err != nil {
		s.logger.Warn("rejected foreign source", zap.String("author", authorID.Hex()), zap.Error(err))
		return nil, err
	}
	author, err := s.store.FindUserByID(ctx, authorID)
	if err != nil {
		s.logger.Warn("can not add image", zap.String("author", authorID.Hex()), zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	image := &Image{Author: author.ID, CreatedAt: now, UpdatedAt: now}
	if err := input.apply(image, s.cdn); err != nil {
		return nil, err
	}
	if err := s.store.CreateImage(ctx, image); err != nil {
		s.logger.Error("can not create image", zap.String("author", authorID.Hex()), zap.Error(err))
		return nil, err
	}
	s.cache.Invalidate(homeRoute)
	return image, nil
}

// UpdateImage rewrites an image owned by userID.
func (s *ImageService) UpdateImage(ctx context.Context, userID bson.ObjectID, input ImageInput) (*Image, error) {
	id, err := bson.ObjectIDFromHex(input.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: image id %q", ErrImageNotFound, input.ID)
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	image, err := s.store.FindImageByID(ctx, id)
	if err != nil {
		s.logger.Warn("can not update image", zap.String("image", input.ID), zap.Error(err))
		return nil, err
	}
	if image.Author != userID {
		s.logger.Warn("rejected update of foreign image",
			zap.String("image", input.ID), zap.String("user", userID.Hex()))
		return nil, ErrNotOwner
	}
	if err := s.checkSource(userID, input.PublicID); err != nil {
		s.logger.Warn("rejected foreign source", zap.String("image", input.ID), zap.Error(err))
		return nil, err
	}

	if err := input.apply(image, s.cdn); err != nil {
		return nil, err
	}
	image.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateImage(ctx, image); err != nil {
		s.logger.Error("can not update image", zap.String("image", input.ID), zap.Error(err))
		return nil, err
	}
	s.cache.Invalidate(transformationRoute(id), homeRoute)
	return image, nil
}

// DeleteImage removes an image owned by userID. The uploaded source object
// is removed on a best effort basis, and only when it sits under the
// owner's own prefix.
func (s *ImageService) DeleteImage(ctx context.Context, userID bson.ObjectID, imageID string) error {
	id, err := bson.ObjectIDFromHex(imageID)
	if err != nil {
		return fmt.Errorf("%w: image id %q", ErrImageNotFound, imageID)
	}
	image, err := s.store.FindImageByID(ctx, id)
	if err != nil {
		s.logger.Warn("can not delete image", zap.String("image", imageID), zap.Error(err))
		return err
	}
	if image.Author != userID {
		return ErrNotOwner
	}
	if err := s.store.DeleteImage(ctx, id); err != nil {
		s.logger.Error("can not delete image", zap.String("image", imageID), zap.Error(err))
		return err
	}
	if s.assets != nil && strings.HasPrefix(image.PublicID, OwnerPrefix(s.cdn.Folder(), userID)) {
		if err := s.assets.DeleteFile(ctx, image.PublicID); err != nil {
			s.logger.Warn("can not delete source asset", zap.String("key", image.PublicID), zap.Error(err))
		}
	}
	s.cache.Invalidate(transformationRoute(id), homeRoute)
	return nil
}

// GetImageByID returns the image with its author populated. Only the image
// is cached; the author is read on every call so profile edits show up.
func (s *ImageService) GetImageByID(ctx context.Context, imageID string) (*ImageDetails, error) {
	id, err := bson.ObjectIDFromHex(imageID)
	if err != nil {
		return nil, fmt.Errorf("%w: image id %q", ErrImageNotFound, imageID)
	}
	route := transformationRoute(id)
	var image *Image
	if cached, ok := s.cache.Get(route, ""); ok {
		image = cached.(*Image)
	} else {
		image, err = s.store.FindImageByID(ctx, id)
		if err != nil {
			s.logger.Warn("can not get image", zap.String("image", imageID), zap.Error(err))
			return nil, err
		}
		s.cache.Set(route, "", image)
	}

	details := &ImageDetails{Image: image}
	author, err := s.store.FindUserByID(ctx, image.Author)
	switch {
	case err == nil:
		details.Author = &AuthorSummary{ID: author.ID, FirstName: author.FirstName, LastName: author.LastName}
	case errors.Is(err, ErrUserNotFound):
	default:
		s.logger.Error("can not populate author", zap.String("image", imageID), zap.Error(err))
		return nil, err
	}
	return details, nil
}

// GetAllImages lists the shared gallery. A non-empty query is resolved by
// the CDN search endpoint first.
func (s *ImageService) GetAllImages(ctx context.Context, page int, searchQuery string) (*ImagePage, error) {
	page = normalizePage(page)
	searchQuery = strings.TrimSpace(searchQuery)
	if len(searchQuery) > maxQueryLength {
		return nil, fmt.Errorf("%w: query longer than %d bytes", ErrInvalidInput, maxQueryLength)
	}
	key := fmt.Sprintf("page=%d&query=%s", page, searchQuery)
	if cached, ok := s.cache.Get(homeRoute, key); ok {
		return cached.(*ImagePage), nil
	}

	query := ImageQuery{Skip: int64(page-1) * s.pageSize, Limit: s.pageSize}
	if searchQuery != "" {
		expression := fmt.Sprintf("folder=%s AND %s", s.cdn.Folder(), searchQuery)
		ids, err := s.search.Search(ctx, expression)
		if err != nil {
			s.logger.Error("can not search images", zap.String("query", searchQuery), zap.Error(err))
			return nil, err
		}
		query.PublicIDs = ids
	}

	images, total, err := s.store.ListImages(ctx, query)
	if err != nil {
		s.logger.Error("can not list images", zap.Int("page", page), zap.Error(err))
		return nil, err
	}
	saved, err := s.store.CountImages(ctx)
	if err != nil {
		s.logger.Error("can not count images", zap.Error(err))
		return nil, err
	}
	result := &ImagePage{Data: images, TotalPages: s.totalPages(total), SavedImages: saved}
	s.cache.Set(homeRoute, key, result)
	return result, nil
}

// GetUserImages lists the images authored by userID.
func (s *ImageService) GetUserImages(ctx context.Context, page int, userID bson.ObjectID) (*ImagePage, error) {
	page = normalizePage(page)
	images, total, err := s.store.ListImages(ctx, ImageQuery{
		Author: &userID,
		Skip:   int64(page-1) * s.pageSize,
		Limit:  s.pageSize,
	})
	if err != nil {
		s.logger.Error("can not list user images", zap.String("user", userID.Hex()), zap.Error(err))
		return nil, err
	}
	return &ImagePage{Data: images, TotalPages: s.totalPages(total)}, nil
}

func (s *ImageService) totalPages(total int64) int64 {
	return (total + s.pageSize - 1) / s.pageSize
}

func normalizePage(page int) int {
	return min(max(page, 1), MaxPage)
}
