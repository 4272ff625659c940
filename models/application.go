package models

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusRejected ApplicationStatus = "rejected"
	StatusHired    ApplicationStatus = "hired"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusRejected, StatusHired:
		return true
	}
	return false
}

// JobApplication is a submitted application for a named role. Status is only
// changed by the admin tooling.
type JobApplication struct {
	ID              string            `bson:"-"`
	AccountID       string            `bson:"-"`
	JobTitle        string            `bson:"job_title"`
	CV              string            `bson:"cv"`
	CoverLetter     string            `bson:"cover_letter"`
	Status          ApplicationStatus `bson:"status"`
	ApplicationDate time.Time         `bson:"application_date"`
}
