package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type UserService struct {
	store          UserStore
	cdn            *CDN
	fee            int
	defaultCredits int
	logger         *zap.Logger
}

func NewUserService(store UserStore, cdn *CDN, fee, defaultCredits int, logger *zap.Logger) *UserService {
	return &UserService{
		store:          store,
		cdn:            cdn,
		fee:            fee,
		defaultCredits: defaultCredits,
		logger:         logger,
	}
}

func (s *UserService) Fee() int { return s.fee }

// EnsureUser returns the user behind identity, creating it on first sign-in.
func (s *UserService) EnsureUser(ctx context.Context, identity *Identity) (*User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidInput)
	}
	user, err := s.store.FindUserByClerkID(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		s.logger.Error("can not look up user", zap.String("subject", identity.Subject), zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	user = &User{
		ClerkID:       identity.Subject,
		Email:         identity.Email,
		Username:      identity.Username,
		Photo:         identity.Picture,
		FirstName:     identity.FirstName,
		LastName:      identity.LastName,
		PlanID:        1,
		CreditBalance: s.defaultCredits,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// lost a race with a concurrent first request
			return s.store.FindUserByClerkID(ctx, identity.Subject)
		}
		s.logger.Error("can not create user", zap.String("subject", identity.Subject), zap.Error(err))
		return nil, err
	}
	s.logger.Info("created user", zap.String("subject", identity.Subject), zap.String("id", user.ID.Hex()))
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, clerkID string) (*User, error) {
	user, err := s.store.FindUserByClerkID(ctx, clerkID)
	if err != nil {
		s.logger.Warn("can not get user", zap.String("subject", clerkID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, clerkID string, profile UserProfile) (*User, error) {
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.Username = strings.TrimSpace(profile.Username)
	user, err := s.store.UpdateUser(ctx, clerkID, profile)
	if err != nil {
		s.logger.Error("can not update user", zap.String("subject", clerkID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// UpdateCredits adds delta (negative to debit) to the balance.
func (s *UserService) UpdateCredits(ctx context.Context, userID bson.ObjectID, delta int) (*User, error) {
	user, err := s.store.IncrementCredits(ctx, userID, delta)
	if err != nil {
		s.logger.Error("can not update credits",
			zap.String("user", userID.Hex()), zap.Int("delta", delta), zap.Error(err))
		return nil, err
	}
	return user, nil
}

type (
	TransformRequest struct {
		PublicID    string         `json:"publicId"`
		Width       int            `json:"width"`
		Height      int            `json:"height"`
		AspectRatio string         `json:"aspectRatio"`
		Prompt      string         `json:"prompt"`
		Color       string         `json:"color"`
		Config      map[string]any `json:"config"`
	}

	TransformResult struct {
		Type              TransformationType `json:"transformationType"`
		Config            map[string]any     `json:"config"`
		TransformationURL string             `json:"transformationURL"`
		Width             int                `json:"width"`
		Height            int                `json:"height"`
		CreditBalance     int                `json:"creditBalance"`
	}
)

// ApplyTransformation merges the request into the type's default config and
// debits the fee. The fee is charged whether or not the CDN later manages
// to render the result.
func (s *UserService) ApplyTransformation(ctx context.Context, user *User, t TransformationType, req TransformRequest) (*TransformResult, error) {
	tr, err := LookupTransformation(t)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PublicID) == "" {
		return nil, fmt.Errorf("%w: publicId is required", ErrInvalidInput)
	}
	if user.CreditBalance < s.fee {
		return nil, fmt.Errorf("%w: balance %d, fee %d", ErrInsufficientCredits, user.CreditBalance, s.fee)
	}

	width, height := req.Width, req.Height
	next := map[string]any{}
	switch t {
	case Fill:
		if req.AspectRatio != "" {
			ar, ok := LookupAspectRatio(req.AspectRatio)
			if !ok {
				return nil, fmt.Errorf("%w: aspect ratio %q", ErrInvalidInput, req.AspectRatio)
			}
			width, height = ar.Width, ar.Height
		}
	case RemoveObject:
		next["remove"] = map[string]any{"prompt": strings.TrimSpace(req.Prompt)}
	case Recolor:
		next["recolor"] = map[string]any{
			"prompt": strings.TrimSpace(req.Prompt),
			"to":     strings.TrimSpace(req.Color),
		}
	}
	config := DeepMerge(DeepMerge(tr.Config, req.Config), next)

	transformationURL, err := s.cdn.TransformationURL(req.PublicID, width, height, config)
	if err != nil {
		return nil, err
	}

	updated, err := s.UpdateCredits(ctx, user.ID, -s.fee)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("applied transformation",
		zap.String("user", user.ID.Hex()), zap.String("type", string(t)), zap.Int("balance", updated.CreditBalance))

	return &TransformResult{
		Type:              t,
		Config:            config,
		TransformationURL: transformationURL,
		Width:             width,
		Height:            height,
		CreditBalance:     updated.CreditBalance,
	}, nil
}
