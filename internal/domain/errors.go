package domain

import "errors"

var (
	// ErrInvalidTransaction is returned when a transaction fails validation
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrWatchlistNotFound is returned when an operation names an unknown watchlist
	ErrWatchlistNotFound = errors.New("watchlist not found")
	// ErrWrongSource is returned when a watchlist belongs to a different rating service
	ErrWrongSource = errors.New("watchlist source mismatch")
	// ErrInvalidWatchlist is returned when a watchlist fails validation
	ErrInvalidWatchlist = errors.New("invalid watchlist")
)
