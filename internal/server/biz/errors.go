package biz

import (
	"errors"
)

var (
	ErrInvalidJWT      = errors.New("invalid jwt token")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrConflictRetries = errors.New("gave up after repeated concurrent modifications")
	ErrInternal        = errors.New("server internal error, please try again later")
)
