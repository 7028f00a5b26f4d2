// Package policy implements the eleven capture policies — four driver
// policies and seven follower policies — that decide readiness, emission, and
// retention for a single stream's queue. Policies hold no lock of their own;
// a captor calls into its policy with the appropriate lockpolicy.Policy
// already held.
package policy

// State is the outcome of a dry-run or live capture attempt.
type State int

const (
	// Retry means the policy is not yet ready; the caller should wait for
	// more data and try again.
	Retry State = iota
	// Primed means the policy is ready to emit; a subsequent Capture call
	// (with no intervening mutation) will succeed with the same range.
	Primed
	// Abort means the policy can never become ready for the current driving
	// range — the data that would have satisfied it can no longer arrive.
	Abort
	// Timeout means a deadline elapsed while waiting on Retry. This state is
	// produced by the captor/synchronizer layer, not by policies themselves.
	Timeout
)

func (s State) String() string {
	switch s {
	case Retry:
		return "RETRY"
	case Primed:
		return "PRIMED"
	case Abort:
		return "ABORT"
	case Timeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Reduce combines two states per the group-reduction rule: ABORT beats
// RETRY beats PRIMED. Used to fold a driver's state together with every
// follower's dry-run state into one group verdict.
func Reduce(a, b State) State {
	if a == Abort || b == Abort {
		return Abort
	}
	if a == Retry || b == Retry {
		return Retry
	}
	return Primed
}
