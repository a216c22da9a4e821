package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ     QuestionType = "mcq"
	QuestionTypeGroupTF QuestionType = "group-tf"
	QuestionTypeShort   QuestionType = "short"
)

// True/false answer tokens used by grouped true/false sub-questions.
// Sub-answers are matched against these by exact string equality.
const (
	TokenTrue  = "True"
	TokenFalse = "False"
)

// SubQuestion is one statement inside a grouped true/false question.
type SubQuestion struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CorrectAnswer string `json:"correctAnswer"`
}

// Question represents a single quiz question. Questions are immutable once
// the quiz is published; the session engine only ever reads them.
type Question struct {
	ID            string        `json:"id"`
	Type          QuestionType  `json:"type"`
	Text          string        `json:"text"`
	Points        LenientNumber `json:"points"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Solution      string        `json:"solution,omitempty"`
	Options       []string      `json:"options,omitempty"`
	CorrectAnswer string        `json:"correctAnswer,omitempty"`
	SubQuestions  []SubQuestion `json:"subQuestions,omitempty"`
}

// SubAnswerKey builds the answer-map key for a grouped true/false sub-item.
func SubAnswerKey(questionID, subQuestionID string) string {
	return questionID + "_" + subQuestionID
}
