// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pborman/uuid"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/rewards"
	"github.com/dposledger/ledger/staking/stake"
)

// Name of a ledger event.
type Name string

const (
	StakeCreated         Name = "stake.created"
	StakePoweredUp       Name = "stake.powerup"
	StakeReleased        Name = "stake.released"
	StakeRedeemRequested Name = "stake.redeem"
	StakeRedeemed        Name = "stake.redeemed"
	StakeCanceled        Name = "stake.canceled"
	StakeExtended        Name = "stake.extended"
	TopDelegatesRewarded Name = "top.delegates.rewarded"
	BlockApplied         Name = "block.applied"
	BlockReverted        Name = "block.reverted"
)

// Event carries a copy of the entities a mutation touched.
type Event struct {
	ID      string           `json:"id"`
	Name    Name             `json:"name"`
	Height  uint32           `json:"height"`
	BlockID ledger.Bytes32   `json:"blockId,omitempty"`
	Address *ledger.Address  `json:"address,omitempty"`
	Stake   *stake.Stake     `json:"stake,omitempty"`
	Payouts []rewards.Payout `json:"payouts,omitempty"`
}

// New creates an event with a fresh id.
func New(name Name, height uint32) *Event {
	return &Event{
		ID:     uuid.New(),
		Name:   name,
		Height: height,
	}
}

// ForStake creates a stake event holding a copy of s.
func ForStake(name Name, height uint32, owner ledger.Address, s *stake.Stake) *Event {
	ev := New(name, height)
	addr := owner
	ev.Address = &addr
	ev.Stake = s.Clone()
	return ev
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(%v #%d %v)", e.Name, e.Height, e.ID)
}

// Bus fans ledger events out to subscribers.
type Bus struct {
	feed  event.Feed
	scope event.SubscriptionScope
}

// NewBus creates a bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe delivers every published event to ch. Sends block until ch
// accepts, so subscribers should buffer.
func (b *Bus) Subscribe(ch chan *Event) event.Subscription {
	return b.scope.Track(b.feed.Subscribe(ch))
}

// Publish sends events in order and returns the number of deliveries.
func (b *Bus) Publish(evs ...*Event) int {
	n := 0
	for _, ev := range evs {
		n += b.feed.Send(ev)
	}
	return n
}

// Close unsubscribes every subscriber.
func (b *Bus) Close() {
	b.scope.Close()
}

// Buffer holds events until the operation producing them succeeds.
type Buffer struct {
	events []*Event
}

// Add appends events.
func (b *Buffer) Add(evs ...*Event) {
	b.events = append(b.events, evs...)
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Events returns the buffered events.
func (b *Buffer) Events() []*Event {
	return b.events
}

// Reset drops the buffered events.
func (b *Buffer) Reset() {
	b.events = nil
}

// Flush publishes the buffered events to bus and resets the buffer.
func (b *Buffer) Flush(bus *Bus) {
	if bus != nil {
		bus.Publish(b.events...)
	}
	b.Reset()
}
