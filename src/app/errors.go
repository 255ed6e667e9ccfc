package app

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrImageNotFound         = errors.New("image not found")
	ErrNotOwner              = errors.New("image belongs to another user")
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrDuplicateTransaction  = errors.New("transaction already recorded")
	ErrUnknownPlan           = errors.New("unknown plan")
	ErrUnknownTransformation = errors.New("unknown transformation type")
	ErrInvalidInput          = errors.New("invalid input")
)
