package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"user_service/internal/apperror"
	"user_service/internal/lib/hash"
	"user_service/internal/lib/jwt"
	sl "user_service/internal/lib/logger"
	"user_service/internal/models"
	"user_service/internal/storage"
)

type Service struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	media       MediaStore
	events      EventPublisher
	tokens      *jwt.Manager
}

type UserSaver interface {
	SaveUser(ctx context.Context, user *models.User) (string, error)

	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passHash []byte) error
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
}

type UserProvider interface {
	UserByLogin(ctx context.Context, username, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

type MediaStore interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.AccountEvent) error
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	media MediaStore,
	events EventPublisher,
	tokens *jwt.Manager,
) *Service {
	return &Service{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		media:       media,
		events:      events,
		tokens:      tokens,
	}
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	AvatarPath string
	CoverPath  string
}

type LoginResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

// Register creates an account. The password is hashed here, exactly once;
// no later save rehashes it unless the value itself changes.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	const op = "user.Register"

	log := s.log.With(slog.String("op", op), slog.String("username", in.Username))

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Password = strings.TrimSpace(in.Password)

	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return models.PublicUser{}, apperror.Validation("all fields are required")
	}
	if in.AvatarPath == "" {
		return models.PublicUser{}, apperror.Validation("avatar file is required")
	}

	_, err := s.usrProvider.UserByLogin(ctx, in.Username, in.Email)
	if err == nil {
		log.Warn("user already exists")
		return models.PublicUser{}, apperror.Conflict("user with email or username already exists")
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check existing user", sl.Err(err))
		return models.PublicUser{}, apperror.Internal(err)
	}

	passHash, err := hash.Password(in.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return models.PublicUser{}, apperror.Internal(err)
	}

	avatarURL, err := s.media.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		log.Error("avatar upload failed", sl.Err(fmt.Errorf("%s: %v", op, err)))
		return models.PublicUser{}, apperror.Upload("avatar upload failed", err)
	}

	coverURL := ""
	if in.CoverPath != "" {
		coverURL, err = s.media.Upload(ctx, in.CoverPath)
		if err != nil {
			log.Warn("cover image upload failed", sl.Err(err))
			coverURL = ""
		}
	}

	u := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		PassHash:   passHash,
	}

	id, err := s.usrSaver.SaveUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.PublicUser{}, apperror.Conflict("user with email or username already exists")
		}
		log.Error("failed to save user", sl.Err(err))
		return models.PublicUser{}, apperror.Internal(err)
	}

	log.Info("user registered", slog.String("id", id))

	s.publish(ctx, models.EventRegistered, id, u.Username, u.Email)

	return u.Public(), nil
}

// Login checks credentials and issues a fresh token pair. The refresh
// token is persisted on the account, replacing any previous session.
func (s *Service) Login(ctx context.Context, username, email, password string) (LoginResult, error) {
	const op = "user.Login"

	log := s.log.With(slog.String("op", op))

	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return LoginResult{}, apperror.Validation("username or email is required")
	}

	u, err := s.usrProvider.UserByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return LoginResult{}, apperror.NotFound("user does not exist")
		}
		log.Error("failed to get user", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	if !hash.Verify(password, u.PassHash) {
		log.Info("invalid credentials", slog.String("username", u.Username))
		return LoginResult{}, apperror.Auth("wrong password")
	}

	pair, err := s.tokens.NewPair(u)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	if err := s.usrSaver.SetRefreshToken(ctx, u.ID.Hex(), pair.RefreshToken); err != nil {
		log.Error("failed to persist refresh token", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	log.Info("user logged in", slog.String("id", u.ID.Hex()))

	return LoginResult{
		User:         u.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the current session by clearing the stored refresh token.
func (s *Service) Logout(ctx context.Context, userID string) error {
	const op = "user.Logout"

	log := s.log.With(slog.String("op", op), slog.String("id", userID))

	if err := s.usrSaver.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperror.Auth("invalid session")
		}
		log.Error("failed to clear refresh token", sl.Err(err))
		return apperror.Internal(err)
	}

	log.Info("user logged out")

	s.publish(ctx, models.EventLoggedOut, userID, "", "")

	return nil
}

// Refresh exchanges a refresh token for a new pair. Beyond signature and
// expiry, the presented token must equal the one stored on the account;
// anything else (logout, earlier rotation) makes it stale.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	const op = "user.Refresh"

	log := s.log.With(slog.String("op", op))

	if refreshToken == "" {
		return LoginResult{}, apperror.Auth("unauthorized request")
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return LoginResult{}, apperror.Auth("refresh token expired")
		}
		return LoginResult{}, apperror.Auth("invalid refresh token")
	}

	u, err := s.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return LoginResult{}, apperror.Auth("invalid refresh token")
		}
		log.Error("failed to load user", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		log.Warn("stale refresh token", slog.String("id", userID))
		return LoginResult{}, apperror.Auth("refresh token is expired or used")
	}

	pair, err := s.tokens.NewPair(u)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	if err := s.usrSaver.SetRefreshToken(ctx, u.ID.Hex(), pair.RefreshToken); err != nil {
		log.Error("failed to persist refresh token", sl.Err(err))
		return LoginResult{}, apperror.Internal(err)
	}

	log.Info("tokens refreshed", slog.String("id", userID))

	return LoginResult{
		User:         u.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// ChangePassword verifies the old password and stores a hash of the new
// one. This is the only save path that rehashes.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	const op = "user.ChangePassword"

	log := s.log.With(slog.String("op", op), slog.String("id", userID))

	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return apperror.Validation("old and new passwords are required")
	}

	u, err := s.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperror.Auth("invalid session")
		}
		log.Error("failed to load user", sl.Err(err))
		return apperror.Internal(err)
	}

	if !hash.Verify(oldPassword, u.PassHash) {
		log.Info("invalid old password")
		return apperror.Auth("invalid old password")
	}

	passHash, err := hash.Password(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return apperror.Internal(err)
	}

	if err := s.usrSaver.UpdatePassword(ctx, userID, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return apperror.Internal(err)
	}

	log.Info("password changed")

	s.publish(ctx, models.EventPasswordChanged, userID, u.Username, u.Email)

	return nil
}

// UpdateProfile changes display name and email. The password field is
// untouched, so no rehash happens.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName, email string) (models.PublicUser, error) {
	const op = "user.UpdateProfile"

	log := s.log.With(slog.String("op", op), slog.String("id", userID))

	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return models.PublicUser{}, apperror.Validation("all fields are required")
	}

	u, err := s.usrSaver.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.PublicUser{}, apperror.Auth("invalid session")
		}
		log.Error("failed to update profile", sl.Err(err))
		return models.PublicUser{}, apperror.Internal(err)
	}

	log.Info("profile updated")

	return u.Public(), nil
}

// UpdateAvatar uploads the file and swaps the avatar URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (models.PublicUser, error) {
	return s.updateImage(ctx, "user.UpdateAvatar", userID, localPath, "avatar file is missing", s.usrSaver.UpdateAvatar)
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (models.PublicUser, error) {
	return s.updateImage(ctx, "user.UpdateCoverImage", userID, localPath, "cover image file is missing", s.usrSaver.UpdateCoverImage)
}

func (s *Service) updateImage(
	ctx context.Context,
	op, userID, localPath, missingMsg string,
	save func(ctx context.Context, id, url string) (models.User, error),
) (models.PublicUser, error) {
	log := s.log.With(slog.String("op", op), slog.String("id", userID))

	if localPath == "" {
		return models.PublicUser{}, apperror.Validation(missingMsg)
	}

	url, err := s.media.Upload(ctx, localPath)
	if err != nil || url == "" {
		log.Error("upload failed", sl.Err(fmt.Errorf("%s: %v", op, err)))
		return models.PublicUser{}, apperror.Upload("error while uploading file", err)
	}

	u, err := save(ctx, userID, url)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.PublicUser{}, apperror.Auth("invalid session")
		}
		log.Error("failed to update image url", sl.Err(err))
		return models.PublicUser{}, apperror.Internal(err)
	}

	log.Info("image updated")

	return u.Public(), nil
}

// ChannelProfile returns the subscriber-count view of an account. The
// viewer id decides isSubscribed and may be empty.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	const op = "user.ChannelProfile"

	log := s.log.With(slog.String("op", op))

	username = strings.TrimSpace(username)
	if username == "" {
		return models.ChannelProfile{}, apperror.Validation("username is missing")
	}

	profile, err := s.usrProvider.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrChannelNotFound) {
			return models.ChannelProfile{}, apperror.NotFound("channel does not exist")
		}
		log.Error("failed to aggregate channel profile", sl.Err(err))
		return models.ChannelProfile{}, apperror.Internal(err)
	}

	return profile, nil
}

// Event publishing is best-effort: broker trouble never fails the account
// operation.
func (s *Service) publish(ctx context.Context, eventType, userID, username, email string) {
	event := models.AccountEvent{
		Type:     eventType,
		UserID:   userID,
		Username: username,
		Email:    email,
		At:       time.Now(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish account event",
			slog.String("type", eventType), sl.Err(err))
	}
}
