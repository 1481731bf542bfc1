package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrInvalidToken = errors.New("token not found or expired")
var ErrInvalidCredentials = errors.New("invalid credentials") // username or password does not match the configured admin

// Optimisation input errors. They are the caller's fault and map to 400.
var ErrUnknownLocation = errors.New("unknown location")
var ErrSameEndpoints = errors.New("start and end locations must differ")
var ErrAlphaOutOfRange = errors.New("alpha out of range")

// IsInputError reports whether err is one of the optimisation input errors.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownLocation) ||
		errors.Is(err, ErrSameEndpoints) ||
		errors.Is(err, ErrAlphaOutOfRange)
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
}
