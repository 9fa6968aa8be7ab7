// Package user defines the login record stored through yoshino.
package user

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"

	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/schema"
)

// SaltSize is the length of the random salt drawn by New.
const SaltSize = 16

// User is a login account. Its table is y_user.
type User struct {
	ID         ir.RowID   `yoshino:"id"`
	Handle     uuid.UUID  `yoshino:"handle"`
	Name       string     `yoshino:"user_name"`
	Credential Credential `yoshino:"login_credential"`
}

// Schema describes the user table.
var Schema = schema.MustReflect[User]()

// New creates an unsaved user with a fresh handle and a randomly salted
// credential for password.
func New(name, password string) (User, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return User{}, fmt.Errorf("generate salt: %w", err)
	}
	handle, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate handle: %w", err)
	}
	return User{
		ID:         ir.NewRowID(),
		Handle:     handle,
		Name:       name,
		Credential: NewCredential([]byte(password), salt),
	}, nil
}

// Authenticate reports whether password matches the user's credential.
func (u User) Authenticate(password string) bool {
	return u.Credential.Validate([]byte(password))
}
