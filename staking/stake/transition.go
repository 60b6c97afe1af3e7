// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

// The transition methods mutate the record only when the current status
// allows it and report whether they did. Callers turn a false return into
// the appropriate typed error.

// PowerUp moves a pending stake to active.
func (s *Stake) PowerUp() bool {
	if s.Status != Pending {
		return false
	}
	s.Status = Active
	return true
}

// Release moves an active stake to released and halves its power once.
func (s *Stake) Release() bool {
	if s.Status != Active {
		return false
	}
	if !s.Halved {
		s.Power = s.Power.DivUint64(2)
		s.Halved = true
	}
	s.Status = Released
	return true
}

// RequestRedeem moves a released stake to redeeming, completing at now + delay.
func (s *Stake) RequestRedeem(now, delay uint64) bool {
	if s.Status != Released {
		return false
	}
	s.Status = Redeeming
	s.Timestamps.RedeemAt = now + delay
	return true
}

// CompleteRedeem moves a redeeming stake to redeemed.
func (s *Stake) CompleteRedeem() bool {
	if s.Status != Redeeming {
		return false
	}
	s.Status = Redeemed
	return true
}

// Cancel moves a pending or active stake to canceled.
func (s *Stake) Cancel() bool {
	if s.Status != Pending && s.Status != Active {
		return false
	}
	s.Status = Canceled
	return true
}

// Extend moves a pending or active stake to a longer tier and recomputes its power.
func (s *Stake) Extend(duration, multiplier uint64) bool {
	if s.Status != Pending && s.Status != Active {
		return false
	}
	if duration <= s.Duration {
		return false
	}
	s.Duration = duration
	s.Multiplier = multiplier
	s.Power = ComputePower(s.Amount, multiplier)
	s.Timestamps.Redeemable = s.Timestamps.Created + duration
	return true
}
