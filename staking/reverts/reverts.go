// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Reason is the typed rejection reason reported for a transaction.
type Reason string

const (
	InsufficientBalance     Reason = "InsufficientBalanceError"
	InvalidDuration         Reason = "InvalidDurationError"
	NonIntegerStake         Reason = "NonIntegerStakeError"
	BelowMinimumStake       Reason = "BelowMinimumStakeError"
	StakeNotFound           Reason = "StakeNotFoundError"
	StakeNotYetRedeemable   Reason = "StakeNotYetRedeemableError"
	StakeAlreadyRedeemed    Reason = "StakeAlreadyRedeemedError"
	StakeAlreadyCanceled    Reason = "StakeAlreadyCanceledError"
	StakeAlreadyReleased    Reason = "StakeAlreadyReleasedError"
	InvalidStakeTimestamp   Reason = "InvalidStakeTimestampError"
	DuplicateStake          Reason = "DuplicateStakeError"
	InvalidStakeExtension   Reason = "InvalidStakeExtensionError"
	PendingStakeTransaction Reason = "PendingStakeTransactionError"

	InvalidNonce           Reason = "InvalidNonceError"
	InvalidAsset           Reason = "InvalidAssetError"
	UnsupportedType        Reason = "UnsupportedTransactionTypeError"
	DelegateNotFound       Reason = "DelegateNotFoundError"
	AlreadyDelegate        Reason = "WalletIsAlreadyDelegateError"
	UsernameTaken          Reason = "WalletUsernameAlreadyRegisteredError"
	AlreadyVoted           Reason = "AlreadyVotedError"
	NoVote                 Reason = "NoVoteError"
	UnvoteMismatch         Reason = "UnvoteMismatchError"
	PendingDelegateRequest Reason = "PendingDelegateRegistrationError"
)

// ErrRevert rejects a transaction before any state is mutated.
type ErrRevert struct {
	reason  Reason
	message string
}

// New creates a revert error with a formatted message.
func New(reason Reason, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		reason:  reason,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	return string(e.reason) + ": " + e.message
}

// Reason returns the typed reason.
func (e *ErrRevert) Reason() Reason {
	return e.reason
}

// IsRevertErr reports whether err is, or wraps, an ErrRevert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// ReasonOf extracts the reason of a revert error.
func ReasonOf(err error) (Reason, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.reason, true
	}
	return "", false
}

// Is reports whether err is a revert error with the given reason.
func Is(err error, reason Reason) bool {
	r, ok := ReasonOf(err)
	return ok && r == reason
}

// FatalError signals corrupted ledger state. Block processing must halt.
type FatalError struct {
	message string
}

// Fatal creates a fatal error with a formatted message.
func Fatal(format string, args ...any) *FatalError {
	return &FatalError{message: fmt.Sprintf(format, args...)}
}

func (e *FatalError) Error() string {
	return "fatal: " + e.message
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
