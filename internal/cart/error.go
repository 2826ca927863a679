package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidOwner    = errors.New("cart owner must be exactly one of member or cookie id")
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrEmptyLines      = errors.New("cart request has no lines")

	// -- Resource State --
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	// -- Operation Failures --
	ErrCartAddItemFailed = errors.New("failed to add item to cart")
	ErrFailedSaveCart    = errors.New("failed to save cart")
)
