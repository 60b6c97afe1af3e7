// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import "github.com/pkg/errors"

var (
	errHeightMismatch = errors.New("block height mismatch")
	errKnownTx        = errors.New("known transaction")
	errUnknownTx      = errors.New("unknown transaction")
	errNotEmpty       = errors.New("ledger is not empty")
)

// IsErrHeightMismatch reports whether a block was rejected for not
// following the tip.
func IsErrHeightMismatch(err error) bool {
	return errors.Cause(err) == errHeightMismatch
}

func IsErrKnownTx(err error) bool {
	return errors.Cause(err) == errKnownTx
}

func IsErrUnknownTx(err error) bool {
	return errors.Cause(err) == errUnknownTx
}

func IsErrNotEmpty(err error) bool {
	return errors.Cause(err) == errNotEmpty
}
