// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"

	"github.com/rccstake/rccstake/abi"
)

type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Bytes returns the abi-encoded Error(string) payload.
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}
	return abi.PackRevert(e.message)
}

var (
	ErrNotInitialized     = New("not initialized")
	ErrAlreadyInitialized = New("already initialized")
	ErrUnauthorized       = New("unauthorized")
	ErrPaused             = New("paused")
	ErrPoolNotFound       = New("pool not found")
	ErrInvalidWeight      = New("invalid weight")
	ErrBelowMinimum       = New("amount below minimum deposit")
	ErrInsufficientStake  = New("insufficient stake")

	// withdraw with nothing unlocked is a no-op, kept for callers that want to treat it as an error
	ErrWithdrawLocked  = New("withdraw locked")
	ErrTransferFailed  = New("transfer failed")
	ErrNothingToClaim  = New("nothing to claim")
	ErrInvalidSchedule = New("invalid schedule")
	ErrZeroAmount      = New("zero amount")
	ErrAlreadyPaused   = New("already paused")
	ErrNotPaused       = New("not paused")
	ErrReentrantCall   = New("reentrant call")
	ErrOverflow        = New("arithmetic overflow")
	ErrLayoutMismatch  = New("storage layout mismatch")
	ErrInvalidAddress  = New("invalid address")
	ErrVersionTooNew   = New("stored schema version is newer than code")
)

type transferFailed struct {
	cause error
}

// TransferFailed wraps a balance service failure. errors.Is matches both
// ErrTransferFailed and the cause.
func TransferFailed(cause error) error {
	return &transferFailed{cause}
}

func (e *transferFailed) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransferFailed.message, e.cause)
}

func (e *transferFailed) Unwrap() []error {
	return []error{ErrTransferFailed, e.cause}
}

// Message returns the revert reason of err, or its error string if err is not a revert.
func Message(err error) string {
	var tf *transferFailed
	if errors.As(err, &tf) {
		return ErrTransferFailed.message
	}
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.message
	}
	return err.Error()
}

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
