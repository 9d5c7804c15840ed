package domain

import "time"

// StudentRecord is created alongside the Profile when a student registers.
// PersonalID references the assigned trainer's subject id once a trainer
// picks the student up; it is null at registration time.
type StudentRecord struct {
	ID         string
	Name       string
	Email      string
	Status     ProfileStatus
	PersonalID *string
	CreatedAt  time.Time
}
