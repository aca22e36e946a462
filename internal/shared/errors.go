package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// API and service errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrTrackNotFound  = fmt.Errorf("track not found")
	ErrNoResults      = fmt.Errorf("no search results")
	ErrDeliveryFailed = fmt.Errorf("message delivery failed")

	// Input validation errors
	ErrMalformedRequest = fmt.Errorf("malformed request")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")
)
