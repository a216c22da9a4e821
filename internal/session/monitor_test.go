package session

import "testing"

func TestIntegrityMonitorEscalation(t *testing.T) {
	m := NewIntegrityMonitor(true)

	if m.State() != IntegrityClean {
		t.Fatalf("initial state = %s, want %s", m.State(), IntegrityClean)
	}

	if got := m.RecordViolation(); got != EscalationWarn {
		t.Fatalf("first violation = %v, want EscalationWarn", got)
	}
	if m.State() != IntegrityWarned {
		t.Fatalf("state after first violation = %s, want %s", m.State(), IntegrityWarned)
	}

	if got := m.RecordViolation(); got != EscalationSubmit {
		t.Fatalf("second violation = %v, want EscalationSubmit", got)
	}
	if got := m.RecordViolation(); got != EscalationSubmit {
		t.Fatalf("third violation = %v, want EscalationSubmit", got)
	}
	if m.State() != IntegrityViolated {
		t.Fatalf("state = %s, want %s", m.State(), IntegrityViolated)
	}
	if m.Violations() != 3 {
		t.Fatalf("Violations() = %d, want 3", m.Violations())
	}
}

func TestIntegrityMonitorInactiveIgnoresEverything(t *testing.T) {
	m := NewIntegrityMonitor(false)

	for i := 0; i < 5; i++ {
		if got := m.RecordViolation(); got != EscalationNone {
			t.Fatalf("inactive monitor escalation = %v, want EscalationNone", got)
		}
	}
	if m.State() != IntegrityClean || m.Violations() != 0 {
		t.Fatalf("inactive monitor mutated: state=%s violations=%d", m.State(), m.Violations())
	}
}
