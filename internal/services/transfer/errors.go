package transfer

import "errors"

var (
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrMerchantPayer       = errors.New("merchant accounts cannot initiate transfers")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
