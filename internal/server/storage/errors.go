package storage

import "errors"

var (
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates the username is taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates the refresh token does not exist.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrObjectNotFound indicates the object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrVersionConflict indicates a version precondition failed. The
	// current server row accompanies the error so the caller can return it
	// to the client for resolution.
	ErrVersionConflict = errors.New("version conflict")
)
