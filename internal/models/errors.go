package models

import "errors"

var (
	ErrNoConfig       = errors.New("no activation config")
	ErrRubricNotFound = errors.New("rubric not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrBadNonce       = errors.New("invalid or expired verification token")
)
