package core

import "errors"

var (
	// ErrInvalidInput is returned when a required field is missing
	ErrInvalidInput = errors.New("invalid input")
	// ErrURLParse is returned by the URL parser; the extractor recovers from it
	ErrURLParse = errors.New("malformed url")
	// ErrClassificationService is returned when the classifier is unreachable or fails
	ErrClassificationService = errors.New("classification service error")
	// ErrClassificationParse is returned when the classifier reply holds no valid verdict
	ErrClassificationParse = errors.New("classification parse error")
	// ErrPersistence is returned when the record store cannot be reached
	ErrPersistence = errors.New("persistence error")
)
