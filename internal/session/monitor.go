package session

// IntegrityState tracks how far a proctored session has escalated.
type IntegrityState string

const (
	IntegrityClean    IntegrityState = "clean"
	IntegrityWarned   IntegrityState = "warned"
	IntegrityViolated IntegrityState = "violated"
)

// Escalation is the action the controller must take after a violation.
type Escalation int

const (
	// EscalationNone: monitoring inactive, nothing to do.
	EscalationNone Escalation = iota
	// EscalationWarn: first violation — show a blocking warning, keep going.
	EscalationWarn
	// EscalationSubmit: second or later violation — force submission.
	EscalationSubmit
)

// IntegrityMonitor counts loss-of-visibility events during proctored
// sessions. Practice sessions construct it inactive and every event is
// ignored. The first violation only warns; the exam is never halted for it.
// Environments that cannot report visibility simply produce no events,
// which is indistinguishable from a clean session.
type IntegrityMonitor struct {
	active     bool
	state      IntegrityState
	violations int
}

func NewIntegrityMonitor(active bool) *IntegrityMonitor {
	return &IntegrityMonitor{active: active, state: IntegrityClean}
}

// Active reports whether the monitor is observing events.
func (m *IntegrityMonitor) Active() bool { return m.active }

// State returns the current escalation state.
func (m *IntegrityMonitor) State() IntegrityState { return m.state }

// Violations returns the number of recorded violations.
func (m *IntegrityMonitor) Violations() int { return m.violations }

// RecordViolation registers one loss-of-visibility event and returns the
// required escalation. Second and later events all return EscalationSubmit;
// the controller's submission guard makes the forced submit happen once.
func (m *IntegrityMonitor) RecordViolation() Escalation {
	if !m.active {
		return EscalationNone
	}

	m.violations++
	if m.violations == 1 {
		m.state = IntegrityWarned
		return EscalationWarn
	}

	m.state = IntegrityViolated
	return EscalationSubmit
}
