package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"qiblaapi/internal/model"
	"qiblaapi/internal/repository"
)

var (
	ErrEmailAndTypeRequired = errors.New("service: email and type are required")
	ErrUserExists           = errors.New("service: user already exists")
	ErrUserNotFound         = errors.New("service: user not found")
)

// FeedUserInput is the registration payload. Pass is optional.
type FeedUserInput struct {
	Email string
	Pass  string
	Type  string
}

// UserService manages the user registry.
type UserService interface {
	// Feed registers a new user. Emails are unique.
	Feed(ctx context.Context, in FeedUserInput) (*model.User, error)

	// Check returns the registered user for email.
	Check(ctx context.Context, email string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

func (s *userService) Feed(ctx context.Context, in FeedUserInput) (*model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	typ := strings.TrimSpace(in.Type)
	if email == "" || typ == "" {
		return nil, ErrEmailAndTypeRequired
	}

	user := &model.User{
		Email:     email,
		Type:      typ,
		CreatedAt: s.now().UTC(),
	}
	if in.Pass != "" {
		hash, err := bcrypt.GenerateFromPassword(passphraseDigest(in.Pass), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash passphrase: %w", err)
		}
		user.PassHash = hash
	}

	if err := s.repo.Add(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("add user: %w", err)
	}
	return user, nil
}

func (s *userService) Check(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// passphraseDigest is what gets bcrypt-hashed. bcrypt rejects input over 72 bytes,
// so the passphrase is first reduced to its hex SHA-256 (64 bytes).
func passphraseDigest(pass string) []byte {
	sum := sha256.Sum256([]byte(pass))
	dst := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(dst, sum[:])
	return dst
}
