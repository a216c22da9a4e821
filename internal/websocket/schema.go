package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionReset      Action = "reset"
	ActionVisibility Action = "visibility"
	ActionSubmit     Action = "submit"
	ActionReview     Action = "review"
	ActionPing       Action = "ping"
)

// RequestPayload carries every client action; unused fields stay empty.
type RequestPayload struct {
	Action Action `json:"action"`
	// Answer fields. Key is the question ID, or questionID_subQuestionID
	// for grouped true/false items.
	Key    string `json:"key,omitempty"`
	Answer string `json:"ans,omitempty"`
	// Confirm acknowledges the unanswered-questions prompt on submit.
	Confirm bool `json:"confirm,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSaved           Event = "saved"
	EventTick            Event = "tick"
	EventWarning         Event = "warning"
	EventConfirmRequired Event = "confirm_required"
	EventSubmitted       Event = "submitted"
	EventReview          Event = "review"
	EventError           Event = "error"
	EventPong            Event = "pong"
)

type SavedResponse struct {
	Event    Event  `json:"event"`
	Status   string `json:"status"`
	Answered int    `json:"answered"`
}

// TickResponse streams the server-side countdown once per second.
type TickResponse struct {
	Event            Event `json:"event"`
	SecondsRemaining int   `json:"seconds_remaining"`
}

// WarningResponse is the first-violation integrity warning.
type WarningResponse struct {
	Event      Event  `json:"event"`
	Message    string `json:"message"`
	Violations int    `json:"violations"`
}

// ConfirmRequiredResponse asks the student to acknowledge unanswered
// questions before a manual submit goes through.
type ConfirmRequiredResponse struct {
	Event      Event `json:"event"`
	Unanswered int   `json:"unanswered"`
}

// SubmittedResponse carries the graded result. Trigger distinguishes
// manual submits from timeout and integrity auto-submits.
type SubmittedResponse struct {
	Event   Event       `json:"event"`
	Trigger string      `json:"trigger"`
	Result  interface{} `json:"result"`
}

// ReviewResponse carries the full review sheet: questions with correct
// answers and solutions, the frozen answer snapshot, and the result.
type ReviewResponse struct {
	Event Event       `json:"event"`
	Sheet interface{} `json:"sheet"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
