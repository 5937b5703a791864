package models

import "errors"

var (
	// ErrConfiguration indicates missing credentials or invalid settings at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrIngestion indicates a configured document could not be found or loaded.
	ErrIngestion = errors.New("ingestion error")

	// ErrEmptyRetrieval indicates the index produced no candidates for a question.
	ErrEmptyRetrieval = errors.New("no relevant context retrieved")

	// ErrUpstream indicates the embedding service or language model call failed.
	ErrUpstream = errors.New("upstream service error")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("empty question")
)
