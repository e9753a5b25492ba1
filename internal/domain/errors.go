package domain

import "errors"

var (
	// ErrProviderUnavailable is returned when the analysis provider cannot be reached or fails
	ErrProviderUnavailable = errors.New("analysis provider unavailable")

	// ErrProviderTimeout is returned when a provider call exceeds its deadline
	ErrProviderTimeout = errors.New("analysis provider timed out")

	// ErrInvalidInput is returned when request parameters are invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleResponse is returned when a response settles after a newer request started
	ErrStaleResponse = errors.New("response superseded by a newer request")

	// ErrProductNotFound is returned when a product id is not in the current catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrSessionNotFound is returned when a discovery session id is unknown
	ErrSessionNotFound = errors.New("discovery session not found")

	// ErrInvalidProduct is returned when catalog data violates product invariants
	ErrInvalidProduct = errors.New("invalid product data")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
