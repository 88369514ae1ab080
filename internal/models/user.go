package models

import "time"

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	GradeLevel int       `json:"gradeLevel"`
	CreatedAt  time.Time `json:"createdAt"`
}
