package session

import "fmt"

// Phase step of a single run. Runs only move forward.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBalanceFetched
	PhaseAmountConfirmed
	PhaseSupplied
	PhaseWithdrawRequested
	PhaseWithdrawn
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseIdle:              "idle",
	PhaseBalanceFetched:    "balance_fetched",
	PhaseAmountConfirmed:   "amount_confirmed",
	PhaseSupplied:          "supplied",
	PhaseWithdrawRequested: "withdraw_requested",
	PhaseWithdrawn:         "withdrawn",
	PhaseEnded:             "ended",
}

var transitions = map[Phase][]Phase{
	PhaseIdle:              {PhaseBalanceFetched, PhaseEnded},
	PhaseBalanceFetched:    {PhaseAmountConfirmed, PhaseEnded},
	PhaseAmountConfirmed:   {PhaseSupplied, PhaseEnded},
	PhaseSupplied:          {PhaseWithdrawRequested, PhaseEnded},
	PhaseWithdrawRequested: {PhaseWithdrawn, PhaseEnded},
	PhaseWithdrawn:         {PhaseEnded},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// CanAdvanceTo reports whether next directly follows p.
func (p Phase) CanAdvanceTo(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}
