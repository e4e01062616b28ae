// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth checks the two credential schemes of the API: application
// keys identifying the calling service and email/password pairs identifying
// the end user.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidKey = errors.New("application key must have the form name:secret")

// Key is an application credential.
type Key struct {
	Name   string
	Secret string
}

// ParseKeys parses name:secret pairs.
func ParseKeys(pairs []string) ([]Key, error) {
	keys := make([]Key, 0, len(pairs))
	for _, pair := range pairs {
		name, secret, ok := strings.Cut(pair, ":")
		if !ok || name == "" || secret == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, pair)
		}
		keys = append(keys, Key{Name: name, Secret: secret})
	}
	return keys, nil
}

// Hasher hashes and verifies user passwords.
type Hasher interface {
	Matches(plaintext, hash string) bool
	Hash(plaintext string) (string, error)
}

// BcryptHasher is the bcrypt Hasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Matches(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

type Service struct {
	repo   *repository.Repository
	hasher Hasher
	keys   []Key
}

func NewService(repo *repository.Repository, hasher Hasher, keys []Key) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		keys:   keys,
	}
}

// CheckKey authenticates the calling application. Every configured key is
// compared so the time taken does not depend on which one matched.
func (s *Service) CheckKey(name, secret string) error {
	var match int
	for _, k := range s.keys {
		nameOK := subtle.ConstantTimeCompare([]byte(name), []byte(k.Name))
		secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(k.Secret))
		match |= nameOK & secretOK
	}
	if match != 1 {
		slog.Warn("application_rejected", "application", name)
		return failure.New(failure.Forbidden, failure.Forbidden.Message(""))
	}
	return nil
}

// Authenticate checks the user's password. A missing account fails with
// failure.UserNotFound and a wrong password with failure.Unauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, failure.UserNotFound) {
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
		}
		return nil, err
	}

	if password == "" || !s.hasher.Matches(password, user.PasswordHash) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, failure.New(failure.Unauthorized, failure.Unauthorized.Message(email))
	}

	return user, nil
}

// Hash hashes a new password.
func (s *Service) Hash(password string) (string, error) {
	if password == "" {
		return "", failure.New(failure.RequestRejected, "password must not be empty")
	}
	return s.hasher.Hash(password)
}
