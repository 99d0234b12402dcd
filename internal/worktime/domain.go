// Package worktime reminds employees who have not recorded their work times.
package worktime

import (
	"strings"
	"time"
)

// Employee is a reminder candidate.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	EntryDate time.Time
	ExitDate  *time.Time
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
