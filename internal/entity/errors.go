package entity

import "errors"

var (
	// ErrInvalidTransition reports a lifecycle transition that is not the
	// immediate successor of the current state, or touches a terminal entity.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrAuthorizationDenied reports a mutation the actor's policy does not
	// allow. Callers must not retry.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrConcurrentModification reports a lost optimistic-concurrency race.
	// Callers may retry with a fresh read.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrEntityNotFound reports a uid with no entity in the store.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidSensitivityLevel reports an unknown sensitivity level.
	ErrInvalidSensitivityLevel = errors.New("invalid sensitivity level")

	// ErrUnknownRole reports a context role with no registered policy.
	// Always resolved as a deny, never as an allow.
	ErrUnknownRole = errors.New("unknown role")

	// ErrPolicyViolation is the generic deny from the policy evaluator.
	ErrPolicyViolation = errors.New("policy violation")
)
