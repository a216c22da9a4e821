package session

// AnswerStore holds the in-progress answers of one session, keyed by
// question ID (or questionID_subQuestionID for grouped true/false items).
// Setting an existing key overwrites it. The store is intentionally
// volatile: abandoning a session discards it, and that is accepted behavior.
//
// AnswerStore is not safe for concurrent use; the owning Controller
// serializes access.
type AnswerStore struct {
	entries map[string]string
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{entries: make(map[string]string)}
}

// Set records or overwrites the answer for a key.
func (s *AnswerStore) Set(key, value string) {
	s.entries[key] = value
}

// Get returns the stored answer and whether one exists.
func (s *AnswerStore) Get(key string) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Len returns the number of distinct answered keys.
func (s *AnswerStore) Len() int { return len(s.entries) }

// Reset discards all answers. The session deadline is unaffected.
func (s *AnswerStore) Reset() {
	s.entries = make(map[string]string)
}

// Snapshot returns an independent copy of the current answers. The submit
// path freezes this copy so later mutations can never alter a graded set.
func (s *AnswerStore) Snapshot() map[string]string {
	snap := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		snap[k] = v
	}
	return snap
}
