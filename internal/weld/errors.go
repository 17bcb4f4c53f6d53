package weld

import "errors"

// Weld errors. None of them cross the engine boundary as a panic; they are
// logged and reported on the operation's Report.
var (
	ErrSelfLoop             = errors.New("weld: entity cannot connect to itself")
	ErrCapabilityMismatch   = errors.New("weld: capability mismatch")
	ErrMechanismMismatch    = errors.New("weld: mechanism mismatch")
	ErrAsymmetricConnection = errors.New("weld: one-sided connection")
	ErrMissingEntity        = errors.New("weld: entity not registered")
	ErrAlreadyRegistered    = errors.New("weld: entity already registered")
	ErrOwnershipCycle       = errors.New("weld: reparent would create an ownership cycle")
)
