// Package services defines the business logic for profile reconciliation,
// the unassigned-vehicle workflow, and customer lookups. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Profile and merge errors.
var (
	// ErrPlateRequired is returned when a reconciliation request carries no
	// usable plate; without a plate there is no profile key.
	ErrPlateRequired = errors.New("plate is required")

	// ErrProfileNotFound indicates that the requested profile does not exist
	// within the caller's tenant.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidTier is returned when a tier update names a value outside the
	// allowed set.
	ErrInvalidTier = errors.New("invalid tier")
)

// Unassigned-vehicle workflow errors.
var (
	// ErrUnassignedNotFound indicates that the requested unassigned-vehicle
	// record does not exist within the caller's tenant.
	ErrUnassignedNotFound = errors.New("unassigned vehicle not found")

	// ErrNotPending is returned when a transition targets a record that has
	// already reached a terminal state.
	ErrNotPending = errors.New("unassigned vehicle is not pending")

	// ErrNoTargetVehicle is returned when an approval names no catalog entry
	// and the record carries no suggestion to fall back on.
	ErrNoTargetVehicle = errors.New("no target vehicle for approval")

	// ErrVehicleNotFound indicates that the chosen catalog entry does not
	// exist or is no longer active.
	ErrVehicleNotFound = errors.New("vehicle catalog entry not found")
)
