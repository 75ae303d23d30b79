package service

import "errors"

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrEmptyOrder         = errors.New("nothing to order")    // 422
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
)
