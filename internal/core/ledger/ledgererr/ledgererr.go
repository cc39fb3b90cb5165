// Package ledgererr defines the closed error taxonomy returned by the
// ledger façade and its components, in the spirit of the teacher's
// tx.Result pattern: named int codes plus a short Error() string.
package ledgererr

import "fmt"

// Code identifies a specific ledger failure. The numeric values are
// stable and may be logged or compared across process restarts.
type Code int

const (
	CodeUnknown Code = iota

	// Identity / caller errors
	CodeAnonymousCaller
	CodeNotMinter
	CodeNotOwner

	// Amount / balance errors
	CodeInsufficientBalance
	CodeInsufficientAllowance
	CodeAmountBelowMinimum
	CodeNegativeAmount

	// Transaction admission errors
	CodeInvalidCreatedAt
	CodeTxTooOld
	CodeDuplicateTransaction
	CodeWindowExpired

	// Lookup errors
	CodeNonExistentBlockHeight
	CodeInvalidTxID
	CodeUnknownTxID
	CodeUnknownHolder

	// Archival errors
	CodeArchiveInProgress
	CodeArchiveBatchTooLarge
	CodeShardUnavailable
	CodeNoArchivableBlocks

	// Configuration / state errors
	CodeInvalidFeeSchedule
	CodeInvalidConfiguration
	CodeInvalidLogoFormat
	CodeCorruptSnapshot
)

var names = map[Code]string{
	CodeUnknown:                "unknown",
	CodeAnonymousCaller:        "anonymous caller not allowed",
	CodeNotMinter:              "caller is not a registered minter",
	CodeNotOwner:               "caller is not the token owner",
	CodeInsufficientBalance:    "insufficient balance",
	CodeInsufficientAllowance:  "insufficient allowance",
	CodeAmountBelowMinimum:     "amount below configured minimum",
	CodeNegativeAmount:        "amount must be non-negative",
	CodeInvalidCreatedAt:       "created_at timestamp outside the accepted window",
	CodeTxTooOld:               "created_at older than the retained replay window",
	CodeDuplicateTransaction:   "duplicate transaction",
	CodeWindowExpired:          "too many transactions in the replay window",
	CodeNonExistentBlockHeight: "block height does not exist",
	CodeInvalidTxID:            "transaction id is malformed",
	CodeUnknownTxID:            "transaction id does not belong to this ledger",
	CodeUnknownHolder:          "unknown holder",
	CodeArchiveInProgress:      "archival already in progress",
	CodeArchiveBatchTooLarge:   "archive batch exceeds the shard transport limit",
	CodeShardUnavailable:       "auxiliary storage shard unavailable",
	CodeNoArchivableBlocks:     "no blocks eligible for archival",
	CodeInvalidFeeSchedule:     "invalid fee schedule",
	CodeInvalidConfiguration:   "invalid token configuration",
	CodeInvalidLogoFormat:      "logo is not a recognized image format",
	CodeCorruptSnapshot:        "persisted state snapshot is corrupt",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "unrecognized error code"
}

// Error is the concrete error type returned by ledger operations.
type Error struct {
	Code   Code
	Detail string
}

func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code.String(), e.Detail)
}

// Is supports errors.Is comparisons against a bare Code sentinel by
// wrapping it in an *Error with no detail, e.g. errors.Is(err, New(CodeNotOwner, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
