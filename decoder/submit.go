package decoder

import (
	"fmt"
)

// submitState tracks one packet through the send/receive exchange:
//
//	Idle -> Submitted | PendingRetry -> Draining -> Resubmitted | DrainedOnly
//
// PendingRetry means the codec refused the packet because its output was
// full; it is retried exactly once, after the output got exhausted.
type submitState uint

const (
	submitStateIdle = submitState(iota)
	submitStateSubmitted
	submitStatePendingRetry
	submitStateDraining
	submitStateResubmitted
	submitStateDrainedOnly
)

func (s submitState) String() string {
	switch s {
	case submitStateIdle:
		return "idle"
	case submitStateSubmitted:
		return "submitted"
	case submitStatePendingRetry:
		return "pending_retry"
	case submitStateDraining:
		return "draining"
	case submitStateResubmitted:
		return "resubmitted"
	case submitStateDrainedOnly:
		return "drained_only"
	}
	return fmt.Sprintf("unexpected_submit_state_%d", uint(s))
}

type submitAction uint

const (
	submitActionDrain = submitAction(iota)
	submitActionResubmit
	submitActionDone
)

type submitMachine struct {
	State   submitState
	Pending bool
	Retried bool
}

// Submitted applies the outcome of a send attempt. wouldBlock is whether
// the codec refused the packet because its output is full.
func (m *submitMachine) Submitted(wouldBlock bool) submitAction {
	switch m.State {
	case submitStateIdle:
		if wouldBlock {
			m.State = submitStatePendingRetry
			m.Pending = true
		} else {
			m.State = submitStateSubmitted
		}
		return submitActionDrain
	case submitStateDraining:
		if !m.Pending || !m.Retried {
			panic(fmt.Errorf("unexpected resubmission in state %s", m.State))
		}
		if wouldBlock {
			m.State = submitStateDrainedOnly
			return submitActionDone
		}
		m.State = submitStateResubmitted
		m.Pending = false
		return submitActionDrain
	}
	panic(fmt.Errorf("unexpected submission in state %s", m.State))
}

func (m *submitMachine) BeginDraining() {
	switch m.State {
	case submitStateSubmitted, submitStatePendingRetry, submitStateResubmitted:
		m.State = submitStateDraining
	default:
		panic(fmt.Errorf("unable to start draining in state %s", m.State))
	}
}

// OutputExhausted is called when the codec has no more frames right now.
func (m *submitMachine) OutputExhausted() submitAction {
	if m.State != submitStateDraining {
		panic(fmt.Errorf("output exhausted in state %s", m.State))
	}
	if m.Pending && !m.Retried {
		m.Retried = true
		return submitActionResubmit
	}
	return submitActionDone
}

// Dropped reports whether the packet ended up never accepted by the codec.
func (m *submitMachine) Dropped() bool {
	return m.State == submitStateDrainedOnly
}
