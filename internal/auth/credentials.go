package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"taskTracker/internal/apperr"
	"taskTracker/models"
)

// UserStore is the persistence the credential store needs.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Credentials registers users and verifies their passwords.
type Credentials struct {
	users      UserStore
	iterations int

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentials returns a credential store over users.
func NewCredentials(users UserStore) *Credentials {
	return &Credentials{users: users, iterations: DefaultIterations}
}

// WithIterations overrides the PBKDF2 work factor for newly hashed passwords.
func (c *Credentials) WithIterations(n int) *Credentials {
	if n > 0 {
		c.iterations = n
	}
	return c
}

// Register creates a user with a hashed password. Both fields are required;
// an existing username yields apperr.ErrDuplicateUsername.
func (c *Credentials) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	verr := apperr.NewValidationError()
	if username == "" {
		verr.Required("username")
	}
	if password == "" {
		verr.Required("password")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password, c.iterations)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return c.users.Create(ctx, username, hash)
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// both yield apperr.ErrAuthFailure.
func (c *Credentials) Verify(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.ErrAuthFailure
	}
	u, err := c.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Spend the same hashing work as a real comparison.
		CheckPassword(c.dummy(), password)
		return nil, apperr.ErrAuthFailure
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, apperr.ErrAuthFailure
	}
	return u, nil
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		h, err := HashPassword("not-a-real-password", c.iterations)
		if err != nil {
			h = "pbkdf2:sha256:1$x$00"
		}
		c.dummyHash = h
	})
	return c.dummyHash
}
