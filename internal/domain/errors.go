package domain

import "errors"

var (
	// ErrConversationNotFound indicates an unknown or turn-less conversation id
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmptyDocument indicates a document yielded no extractable text
	ErrEmptyDocument = errors.New("could not extract text from document")
	// ErrUnsupportedFile indicates an upload with an unsupported file type
	ErrUnsupportedFile = errors.New("unsupported file type")
)
