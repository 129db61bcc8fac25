package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	Email        string               `bson:"email"`
	FullName     string               `bson:"fullName"`
	Avatar       string               `bson:"avatar"`
	CoverImage   string               `bson:"coverImage,omitempty"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory,omitempty"`
	PassHash     []byte               `bson:"password"`
	RefreshToken string               `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

// PublicUser is the wire shape of an account. Password hash and refresh
// token never leave the service.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Subscription links a subscriber account to the channel it follows.
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Subscriber primitive.ObjectID `bson:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// ChannelProfile is the aggregated public view of an account as a channel.
type ChannelProfile struct {
	Username          string `bson:"username" json:"username"`
	FullName          string `bson:"fullName" json:"fullName"`
	Email             string `bson:"email" json:"email"`
	Avatar            string `bson:"avatar" json:"avatar"`
	CoverImage        string `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscriberCount   int64  `bson:"subscribersCount" json:"subscribersCount"`
	SubscribedToCount int64  `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed      bool   `bson:"isSubscribed" json:"isSubscribed"`
}

type AccountEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	At       time.Time `json:"at"`
}

const (
	EventRegistered      = "user.registered"
	EventPasswordChanged = "user.password_changed"
	EventLoggedOut       = "user.logged_out"
)
