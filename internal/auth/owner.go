package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Owner holds the bcrypt hash of the owner passphrase. The plaintext is
// hashed once at startup and never retained.
type Owner struct {
	hash []byte
}

func NewOwner(passphrase string) (*Owner, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Owner{hash: hash}, nil
}

func (o *Owner) Verify(passphrase string) error {
	if err := bcrypt.CompareHashAndPassword(o.hash, []byte(passphrase)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
