package repository

import "errors"

// Sentinel errors surfaced by repositories. Services branch on these to map
// store outcomes onto domain results instead of inspecting driver errors.
var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotHeld indicates the agent does not hold a live reservation on the
	// unit being redeemed.
	ErrNotHeld = errors.New("no live reservation held by agent")

	// ErrOutOfStock indicates the unit has no remaining stock.
	ErrOutOfStock = errors.New("unit out of stock")

	// ErrReferenceUsed indicates the redemption reference backstop
	// uniqueness constraint rejected the write.
	ErrReferenceUsed = errors.New("redemption reference already used")
)
