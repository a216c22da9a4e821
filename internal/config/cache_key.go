package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// QuizPayloadKey returns the cache key for a quiz's student-facing payload
// (correct answers and solutions stripped)
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// QuizGradingKey returns the cache key for a quiz's full grading document
// (questions including correct answers and points)
func (r *CacheKeyStruct) QuizGradingKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:grading", quizID)
}

var CacheKey = NewCacheKeyStruct()
