package scoring

import (
	"encoding/json"
	"testing"

	"github.com/eduquiz/eduquiz-backend/internal/model"
)

func groupTF(id string, subCount int) *model.Question {
	q := &model.Question{
		ID:     id,
		Type:   model.QuestionTypeGroupTF,
		Points: 1.0,
	}
	for i := 0; i < subCount; i++ {
		q.SubQuestions = append(q.SubQuestions, model.SubQuestion{
			ID:            string(rune('a' + i)),
			Text:          "statement",
			CorrectAnswer: model.TokenTrue,
		})
	}
	return q
}

func TestEvaluateMCQ(t *testing.T) {
	questions := []*model.Question{
		{ID: "q1", Type: model.QuestionTypeMCQ, Points: 2, CorrectAnswer: "Paris"},
	}

	tests := []struct {
		name   string
		answer string
		want   float64
	}{
		{"exact match", "Paris", 2},
		{"case sensitive", "paris", 0},
		{"no trimming", " Paris", 0},
		{"wrong option", "London", 0},
		{"unanswered", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := map[string]string{}
			if tt.answer != "" {
				answers["q1"] = tt.answer
			}
			if got := Evaluate(questions, answers); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateGroupTFTiers(t *testing.T) {
	q := groupTF("q1", 4)

	tests := []struct {
		correct int
		want    float64
	}{
		{0, 0},
		{1, 0.1},
		{2, 0.25},
		{3, 0.5},
		{4, 1.0},
	}

	for _, tt := range tests {
		answers := map[string]string{}
		for i, sq := range q.SubQuestions {
			token := model.TokenFalse
			if i < tt.correct {
				token = model.TokenTrue
			}
			answers[model.SubAnswerKey(q.ID, sq.ID)] = token
		}
		if got := Evaluate([]*model.Question{q}, answers); got != tt.want {
			t.Errorf("correct=%d: Evaluate() = %v, want %v", tt.correct, got, tt.want)
		}
	}
}

func TestEvaluateGroupTFNonCanonicalSize(t *testing.T) {
	// The tier table keys on the raw correct count, not the group size.
	// Five sub-questions all correct overshoots the table and earns zero;
	// a three-item group lands on the count-3 tier.
	five := groupTF("q5", 5)
	answers := map[string]string{}
	for _, sq := range five.SubQuestions {
		answers[model.SubAnswerKey(five.ID, sq.ID)] = model.TokenTrue
	}
	if got := Evaluate([]*model.Question{five}, answers); got != 0 {
		t.Errorf("5/5 correct: Evaluate() = %v, want 0", got)
	}

	three := groupTF("q3", 3)
	answers = map[string]string{}
	for _, sq := range three.SubQuestions {
		answers[model.SubAnswerKey(three.ID, sq.ID)] = model.TokenTrue
	}
	if got := Evaluate([]*model.Question{three}, answers); got != 0.5 {
		t.Errorf("3/3 correct: Evaluate() = %v, want 0.5", got)
	}
}

func TestMatchShortAnswer(t *testing.T) {
	tests := []struct {
		submitted string
		expected  string
		want      bool
	}{
		{"3.5", "3,5", true},
		{"3.5000001", "3.5", true},  // diff 1e-7 < tolerance
		{"3.50001", "3.5", false},   // diff 1e-5 >= tolerance
		{"3.1", "3.2", false},
		{"  Hello ", "hello", true}, // trim + lowercase
		{"x=2", "X=2", true},
		{"abc", "3.5", false},
		{"", "3.5", false},
		{"3.5", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		if got := MatchShortAnswer(tt.submitted, tt.expected); got != tt.want {
			t.Errorf("MatchShortAnswer(%q, %q) = %v, want %v", tt.submitted, tt.expected, got, tt.want)
		}
	}
}

func TestEvaluateDegradesOnMalformedQuestions(t *testing.T) {
	questions := []*model.Question{
		nil, // null entry in the document
		{ID: "q1", Type: model.QuestionTypeMCQ, CorrectAnswer: ""},      // missing answer key
		{ID: "q2", Type: "essay", Points: 5, CorrectAnswer: "whatever"}, // unknown type
		{ID: "q3", Type: model.QuestionTypeMCQ, Points: 3, CorrectAnswer: "A"},
	}
	answers := map[string]string{"q1": "", "q2": "whatever", "q3": "A"}

	if got := Evaluate(questions, answers); got != 3 {
		t.Errorf("Evaluate() = %v, want 3 (only the well-formed question counts)", got)
	}
}

func TestEvaluateStringPoints(t *testing.T) {
	// Points arrive as strings in hand-authored documents.
	raw := `[
		{"id":"q1","type":"mcq","points":"2,5","correctAnswer":"A"},
		{"id":"q2","type":"mcq","points":"not-a-number","correctAnswer":"B"}
	]`
	var questions []*model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	answers := map[string]string{"q1": "A", "q2": "B"}
	if got := Evaluate(questions, answers); got != 2.5 {
		t.Errorf("Evaluate() = %v, want 2.5", got)
	}
}

func TestEvaluateBoundsAndIdempotence(t *testing.T) {
	questions := []*model.Question{
		{ID: "q1", Type: model.QuestionTypeMCQ, Points: 2, CorrectAnswer: "A"},
		{ID: "q2", Type: model.QuestionTypeShort, Points: 3, CorrectAnswer: "7"},
		groupTF("q3", 4),
	}
	answers := map[string]string{
		"q1":   "A",
		"q2":   "7,0",
		"q3_a": model.TokenTrue,
		"q3_b": model.TokenTrue,
		"q3_c": model.TokenFalse,
	}

	first := Evaluate(questions, answers)
	second := Evaluate(questions, answers)
	if first != second {
		t.Errorf("Evaluate not idempotent: %v != %v", first, second)
	}

	max := 2.0 + 3.0 + 1.0
	if first < 0 || first > max {
		t.Errorf("score %v out of bounds [0, %v]", first, max)
	}
	if first != 5.25 { // 2 + 3 + two-correct tier 0.25
		t.Errorf("Evaluate() = %v, want 5.25", first)
	}
}
