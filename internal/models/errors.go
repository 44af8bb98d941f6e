package models

import "errors"

var (
	// ErrInvalidProjectionType is returned for projection keys outside the registry.
	ErrInvalidProjectionType = errors.New("invalid projection type")

	// ErrEmptyInput is returned by advanced metrics when no games qualify.
	// Plain analysis reports the same situation through NoDataAvailable instead.
	ErrEmptyInput = errors.New("advanced metrics require at least one game")

	// ErrInvalidSeason is returned for season labels that do not start with a year.
	ErrInvalidSeason = errors.New("invalid season")
)
