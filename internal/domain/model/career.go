package model

import "time"

// Step is one dated job of a career as read back from the store.
// Empty Title or Industry means the source had none.
type Step struct {
	Title    string
	Level    Level
	Industry string
	Start    time.Time
}

// Career is the chronologically ordered sequence of dated jobs of one person.
// Ties on Start keep source order.
type Career struct {
	PersonID string
	Steps    []Step
}

// Study is one field of study attached to a person.
type Study struct {
	PersonID string
	Field    string
}
