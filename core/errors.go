package core

import (
	"errors"
	"strconv"
)

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000

	// ErrOperationForbidden caller lacks the required scope
	ErrOperationForbidden ErrorCode = 100100
	// ErrUnauthorizedCaller pool operation not called by the bound port
	ErrUnauthorizedCaller ErrorCode = 100101
	// ErrUnauthorizedSource inbound message from an unknown or mismatched port
	ErrUnauthorizedSource ErrorCode = 100102
	// ErrRouteNotFound no trusted port registered for the chain
	ErrRouteNotFound ErrorCode = 100103

	// ErrInsufficientLiquidity pool free balance too low
	ErrInsufficientLiquidity ErrorCode = 100200
	// ErrInsufficientShares share balance too low
	ErrInsufficientShares ErrorCode = 100201
	// ErrInsufficientCollateral account equity too low to lock
	ErrInsufficientCollateral ErrorCode = 100202
	// ErrInsufficientLocked unlock or seize more than locked
	ErrInsufficientLocked ErrorCode = 100203
	// ErrInsufficientFee port fee asset balance too low
	ErrInsufficientFee ErrorCode = 100204
	// ErrInsufficientBalance token balance too low
	ErrInsufficientBalance ErrorCode = 100205
	// ErrPoolInsolvent pool has shares but no assets
	ErrPoolInsolvent ErrorCode = 100206

	// ErrPriceNotFound neither feed nor manual price
	ErrPriceNotFound ErrorCode = 100300
	// ErrUndercollateralized borrow value over max ltv
	ErrUndercollateralized ErrorCode = 100301
	// ErrInvalidPrice invalid price
	ErrInvalidPrice ErrorCode = 100302
	// ErrLoanHealthy loan can not be liquidated
	ErrLoanHealthy ErrorCode = 100303

	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100400
	// ErrPoolNotFound no pool for asset
	ErrPoolNotFound ErrorCode = 100401
	// ErrPoolExists pool already created for asset
	ErrPoolExists ErrorCode = 100402
	// ErrTokenNotMapped no remote asset for the chain
	ErrTokenNotMapped ErrorCode = 100403
	// ErrInvalidAddress invalid address
	ErrInvalidAddress ErrorCode = 100404
	// ErrInvalidFeeRate fee rate out of range
	ErrInvalidFeeRate ErrorCode = 100405
	// ErrNativeAsset token deposit into the native pool
	ErrNativeAsset ErrorCode = 100406
	// ErrNotNativePool native deposit into a token pool
	ErrNotNativePool ErrorCode = 100407
	// ErrMinimumDeposit first deposit under the minimum
	ErrMinimumDeposit ErrorCode = 100408
	// ErrInvalidSwapPath invalid swap path
	ErrInvalidSwapPath ErrorCode = 100409
	// ErrLoanNotFound no loan
	ErrLoanNotFound ErrorCode = 100410
	// ErrInvalidLoanStatus operation not allowed in the current loan status
	ErrInvalidLoanStatus ErrorCode = 100411
	// ErrLockNotExpired cancel before the lock timeout
	ErrLockNotExpired ErrorCode = 100412
	// ErrInvalidLegs empty or malformed asset legs
	ErrInvalidLegs ErrorCode = 100413
	// ErrInvalidPrecision amount has more decimals than the asset
	ErrInvalidPrecision ErrorCode = 100414

	// ErrInvalidPayload payload can not be decoded
	ErrInvalidPayload ErrorCode = 100500
	// ErrUnknownMessageKind unknown operation tag
	ErrUnknownMessageKind ErrorCode = 100501
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}

// Category error taxonomy
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategoryLiquidity     Category = "liquidity"
	CategoryValuation     Category = "valuation"
	CategoryValidation    Category = "validation"
	CategoryMessage       Category = "message"
	CategoryInternal      Category = "internal"
)

// ErrorCategory classify err by its code, errors without a code are internal
func ErrorCategory(err error) Category {
	var code ErrorCode
	if !errors.As(err, &code) {
		return CategoryInternal
	}

	switch code / 100 {
	case 1001:
		return CategoryAuthorization
	case 1002:
		return CategoryLiquidity
	case 1003:
		return CategoryValuation
	case 1004:
		return CategoryValidation
	case 1005:
		return CategoryMessage
	default:
		return CategoryInternal
	}
}
