package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and dependency readers
// return these (optionally wrapped) so services can translate them into
// coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: concurrent replace lost (version mismatch) or duplicate key
// - ErrExpired: snapshot/baseline is past its freshness window
// - ErrInvalidState: entity in wrong state for the requested transition
// - ErrUnavailable: dependency or resource temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
