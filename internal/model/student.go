package model

import "time"

// Student represents a student account.
type Student struct {
	ID           int       `json:"id"`
	StudentCode  string    `json:"student_code"`
	Name         string    `json:"name"`
	Grade        string    `json:"grade"`
	PasswordHash string    `json:"-"`
	// Points is the cumulative reward balance, distinct from quiz scores.
	Points    float64   `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=2,max=20"`
	Password    string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
