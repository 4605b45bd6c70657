package state

import "github.com/pkg/errors"

var (
	// ErrInvalidDocument is returned when a manual document fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnsupportedFile is returned when a file's extension is not allowed.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge is returned when a file exceeds the upload limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyQuestion is returned when asking a blank question.
	ErrEmptyQuestion = errors.New("empty question")
)
