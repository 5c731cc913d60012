package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// StaticCredentials accepts exactly one username/password pair and issues a
// fixed token for it. Comparison is exact: no trimming, no case folding.
type StaticCredentials struct {
	username string
	password string
	token    string
}

func NewStatic(username, password, token string) *StaticCredentials {
	return &StaticCredentials{
		username: username,
		password: password,
		token:    token,
	}
}

func (s *StaticCredentials) Verify(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return s.token, nil
}

func (s *StaticCredentials) ValidToken(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}
