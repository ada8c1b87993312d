package cms

import "errors"

var (
	ErrUnknownEntityType = errors.New("unknown entity type")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrDuplicateEntity   = errors.New("entity already exists")
	ErrQueueNotFound     = errors.New("unknown queue")
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidField      = errors.New("invalid field value")
	ErrReferenceNotFound = errors.New("referenced entity not found")
)
