package models

import "time"

// SessionRecord is an immutable entry in the work history, written once when a
// work session closes.
type SessionRecord struct {
	ID               string    `json:"id"`
	EmployeeName     string    `json:"employeeName"`
	EmployeeEmail    string    `json:"employeeEmail"`
	DocumentID       string    `json:"documentId"`
	DocumentTitle    string    `json:"documentTitle"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	DurationMinutes  int64     `json:"durationMinutes"`
	HadModifications bool      `json:"hadModifications"`
	SalaryAmount     int64     `json:"salaryCZK"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// ActiveSession is a snapshot of a work session that is still running.
type ActiveSession struct {
	ID               string     `json:"id"`
	DocumentID       string     `json:"documentId"`
	DocumentTitle    string     `json:"documentTitle"`
	StartTime        time.Time  `json:"startTime"`
	ElapsedSeconds   int64      `json:"elapsedSeconds"`
	HadModifications bool       `json:"hadModifications"`
	LastModification *time.Time `json:"lastModification,omitempty"`
}
