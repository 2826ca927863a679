package catalog

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")
	ErrSizeNotFound = errors.New("item size not found")
)
