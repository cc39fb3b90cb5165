// Package fee implements the fee calculator (component C3): a
// schedule of {minimum, rate, rate_decimals} and the transfer/approve
// fee formulas grounded in the original dft_types FeeSchedule and the
// teacher's FeeManager (internal/core/ledger/service/fee_manager.go,
// since deleted — its GetCurrentFees/SetFees accessor shape is kept
// here, retargeted to the token fee model).
package fee

import (
	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Schedule is the fee configuration: a flat Minimum plus a
// Rate/RateDecimals percentage component. The effective fee is
// max(Minimum, value * Rate / 10^RateDecimals).
type Schedule struct {
	Minimum      amount.Amount
	Rate         uint64
	RateDecimals uint8
}

// DefaultSchedule returns a zero-fee schedule.
func DefaultSchedule() Schedule {
	return Schedule{Minimum: amount.Zero(), Rate: 0, RateDecimals: 0}
}

// Validate rejects configurations that could never charge a sane fee.
func (s Schedule) Validate() error {
	if s.RateDecimals > 38 {
		return ledgererr.New(ledgererr.CodeInvalidFeeSchedule, "rate_decimals out of range")
	}
	return nil
}

// CalcTransferFee computes the fee charged on a transfer of value.
func (s Schedule) CalcTransferFee(value amount.Amount) amount.Amount {
	return s.calc(value)
}

// CalcApproveFee computes the fee charged on an approve: a flat
// charge of the schedule's Minimum, independent of value — approvals
// never carry a rate component.
func (s Schedule) CalcApproveFee(value amount.Amount) amount.Amount {
	return s.Minimum
}

func (s Schedule) calc(value amount.Amount) amount.Amount {
	rateFee := value.MulRateBasisPoints(s.Rate, s.RateDecimals)
	if rateFee.LessThan(s.Minimum) {
		return s.Minimum
	}
	return rateFee
}

// Manager guards a mutable Schedule behind a simple accessor, mirroring
// the teacher's FeeManager GetCurrentFees/SetFees split so the façade
// can swap fee schedules (a FeeModify operation) without re-deriving
// the struct each call.
type Manager struct {
	current Schedule
}

// NewManager creates a Manager seeded with the given schedule.
func NewManager(initial Schedule) *Manager {
	return &Manager{current: initial}
}

// Current returns the active schedule.
func (m *Manager) Current() Schedule {
	return m.current
}

// SetSchedule replaces the active schedule after validating it.
func (m *Manager) SetSchedule(s Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.current = s
	return nil
}
