package service

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to check out")
	ErrCartTooLarge = errors.New("cart exceeds the checkout size limit")
)
