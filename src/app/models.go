package app

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is created on first sign-in and is never hard-deleted.
type User struct {
	ID            bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	ClerkID       string        `json:"clerkId" bson:"clerkId"`
	Email         string        `json:"email" bson:"email"`
	Username      string        `json:"username" bson:"username"`
	Photo         string        `json:"photo" bson:"photo"`
	FirstName     string        `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName      string        `json:"lastName,omitempty" bson:"lastName,omitempty"`
	PlanID        int           `json:"planId" bson:"planId"`
	CreditBalance int           `json:"creditBalance" bson:"creditBalance"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// UserProfile holds the mutable profile fields of a User.
type UserProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Photo     string `json:"photo"`
}

type Image struct {
	ID                 bson.ObjectID      `json:"_id" bson:"_id,omitempty"`
	Title              string             `json:"title" bson:"title"`
	TransformationType TransformationType `json:"transformationType" bson:"transformationType"`
	PublicID           string             `json:"publicId" bson:"publicId"`
	SecureURL          string             `json:"secureURL" bson:"secureURL"`
	Width              int                `json:"width,omitempty" bson:"width,omitempty"`
	Height             int                `json:"height,omitempty" bson:"height,omitempty"`
	Config             map[string]any     `json:"config,omitempty" bson:"config,omitempty"`
	TransformationURL  string             `json:"transformationURL" bson:"transformationURL"`
	AspectRatio        string             `json:"aspectRatio,omitempty" bson:"aspectRatio,omitempty"`
	Color              string             `json:"color,omitempty" bson:"color,omitempty"`
	Prompt             string             `json:"prompt,omitempty" bson:"prompt,omitempty"`
	Author             bson.ObjectID      `json:"authorId" bson:"author"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AuthorSummary is the subset of a User shown next to an image.
type AuthorSummary struct {
	ID        bson.ObjectID `json:"_id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
}

type ImageDetails struct {
	*Image
	Author *AuthorSummary `json:"author,omitempty"`
}

// ImagePage is one page of a gallery listing.
type ImagePage struct {
	Data        []*Image `json:"data"`
	TotalPages  int64    `json:"totalPages"`
	SavedImages int64    `json:"savedImages,omitempty"`
}

// Transaction records one completed purchase. Amount is in minor units.
type Transaction struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	StripeID  string        `json:"stripeId" bson:"stripeId"`
	Amount    int64         `json:"amount" bson:"amount"`
	Plan      string        `json:"plan" bson:"plan"`
	Credits   int           `json:"credits" bson:"credits"`
	Buyer     bson.ObjectID `json:"buyer" bson:"buyer"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
}

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	Subject   string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Picture   string
}
