package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"user_service/internal/config"
	"user_service/internal/models"
	"user_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Storage struct {
	client        *mongo.Client
	users         *mongo.Collection
	subscriptions *mongo.Collection
}

func New(ctx context.Context, cfg config.Mongo) (*Storage, error) {
	const op = "storage.mongodb.New"

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	db := client.Database(cfg.DBName)
	s := &Storage{
		client:        client,
		users:         db.Collection("users"),
		subscriptions: db.Collection("subscriptions"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to create indexes: %w", op, err)
	}

	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) SaveUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.mongodb.SaveUser"

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrUserExists
		}
		return "", fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	user.ID = id

	return id.Hex(), nil
}

// UserByLogin finds an account by username or email; either may be empty.
func (s *Storage) UserByLogin(ctx context.Context, username, email string) (models.User, error) {
	const op = "storage.mongodb.UserByLogin"

	filter := bson.M{"$or": bson.A{
		bson.M{"username": strings.ToLower(username)},
		bson.M{"email": strings.ToLower(email)},
	}}

	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.mongodb.UserByID"

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrUserNotFound
	}

	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// SetRefreshToken overwrites the stored refresh token, invalidating any
// previously issued one. Last write wins on concurrent logins.
func (s *Storage) SetRefreshToken(ctx context.Context, id, token string) error {
	const op = "storage.mongodb.SetRefreshToken"

	return s.setFields(ctx, op, id, bson.M{"refreshToken": token})
}

func (s *Storage) ClearRefreshToken(ctx context.Context, id string) error {
	const op = "storage.mongodb.ClearRefreshToken"

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrUserNotFound
	}

	res, err := s.users.UpdateByID(ctx, oid, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// UpdatePassword writes an already-hashed password. It touches no other
// field; the caller decides when rehashing is due.
func (s *Storage) UpdatePassword(ctx context.Context, id string, passHash []byte) error {
	const op = "storage.mongodb.UpdatePassword"

	return s.setFields(ctx, op, id, bson.M{"password": passHash})
}

func (s *Storage) UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error) {
	const op = "storage.mongodb.UpdateProfile"

	return s.findAndSet(ctx, op, id, bson.M{
		"fullName": fullName,
		"email":    strings.ToLower(email),
	})
}

func (s *Storage) UpdateAvatar(ctx context.Context, id, url string) (models.User, error) {
	const op = "storage.mongodb.UpdateAvatar"

	return s.findAndSet(ctx, op, id, bson.M{"avatar": url})
}

func (s *Storage) UpdateCoverImage(ctx context.Context, id, url string) (models.User, error) {
	const op = "storage.mongodb.UpdateCoverImage"

	return s.findAndSet(ctx, op, id, bson.M{"coverImage": url})
}

func (s *Storage) setFields(ctx context.Context, op, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrUserNotFound
	}

	fields["updatedAt"] = time.Now()

	res, err := s.users.UpdateByID(ctx, oid, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (s *Storage) findAndSet(ctx context.Context, op, id string, fields bson.M) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrUserNotFound
	}

	fields["updatedAt"] = time.Now()

	var u models.User
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// ChannelProfile joins the account against subscriptions twice: once with
// the account as the channel (its subscribers) and once as the subscriber
// (the channels it follows). isSubscribed tests the viewer's membership in
// the subscriber set; an unknown viewer id simply never matches.
func (s *Storage) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	const op = "storage.mongodb.ChannelProfile"

	viewer, _ := primitive.ObjectIDFromHex(viewerID)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "username", Value: strings.ToLower(username)},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "subscriptions"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "subscriptions"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscribersCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channelsSubscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{viewer, "$subscribers.subscriber"}}}},
				{Key: "then", Value: true},
				{Key: "else", Value: false},
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}}},
	}

	cur, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
		}
		return models.ChannelProfile{}, storage.ErrChannelNotFound
	}

	var profile models.ChannelProfile
	if err := cur.Decode(&profile); err != nil {
		return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}
