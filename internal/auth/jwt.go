// Package auth gates the owner's cart and library behind a passphrase
// exchanged for a short-lived token. The service is single-user; there
// are no accounts.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ownerSubject = "owner"

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "citacka",
	}
}

// New issues an owner token valid for ttl.
func (t *TokenMaker) New(ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   ownerSubject,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses tokenStr and confirms it is a live owner token.
func (t *TokenMaker) Verify(tokenStr string) error {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return errors.New("invalid token")
	}

	if c.Issuer != "" && c.Issuer != t.issuer {
		return errors.New("invalid issuer")
	}
	if c.Subject != ownerSubject {
		return errors.New("invalid subject")
	}

	return nil
}
