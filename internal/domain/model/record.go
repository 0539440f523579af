// Package model contains domain models passed between layers.
package model

import "time"

// Person is one profile row. Created once at load, never mutated.
type Person struct {
	ID               string
	CreatedAt        *time.Time
	EmploymentStatus *string
	Connections      *int64
	Country          *string
	City             *string
}

// Job is one position held by a person. A nil End means the position is current.
type Job struct {
	PersonID       string
	Title          *string
	Function       *string
	Level          Level
	CompanyName    *string
	Industry       *string
	Start          *time.Time
	End            *time.Time
	DurationMonths *int64
	TenureMonths   *int64
}

// Education is one education entry of a person.
type Education struct {
	PersonID string
	School   *string
	Degree   *string
	Field    *string
	Start    *time.Time
	End      *time.Time
}

// ChangeEvent holds the change-detection timestamps of a person. Kept for lineage.
type ChangeEvent struct {
	PersonID         string
	TitleChangedAt   *time.Time
	CompanyChangedAt *time.Time
	InfoChangedAt    *time.Time
}

// Record is a normalized source record: a person with its embedded history.
type Record struct {
	Person    Person
	Jobs      []Job
	Education []Education
	Changes   ChangeEvent
}
