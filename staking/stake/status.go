// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"fmt"
)

// Status of a stake.
type Status uint8

const (
	Pending Status = iota
	Active
	Released
	Redeeming
	Redeemed
	Canceled
)

var statusNames = [...]string{"pending", "active", "released", "redeeming", "redeemed", "canceled"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == Redeemed || s == Canceled
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid stake status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("invalid stake status %q", text)
}

// EventKind is a scheduled transition.
type EventKind uint8

const (
	EventPowerUp EventKind = iota + 1
	EventRelease
	EventRedeem
)

func (k EventKind) String() string {
	switch k {
	case EventPowerUp:
		return "powerup"
	case EventRelease:
		return "release"
	case EventRedeem:
		return "redeem"
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}
