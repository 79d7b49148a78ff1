package domain

import (
	"math"
	"time"
)

type CheckOutStatus string

const (
	CheckOutActive   CheckOutStatus = "Active"
	CheckOutReturned CheckOutStatus = "Returned"
	CheckOutOverdue  CheckOutStatus = "Overdue"
	CheckOutLost     CheckOutStatus = "Lost"
)

// CheckOut is a loan of one copy of a book.
type CheckOut struct {
	ID            int64          `json:"id"`
	BookID        int64          `json:"bookId"`
	BookTitle     string         `json:"bookTitle"`
	CatalogNumber string         `json:"catalogNumber"`
	UserID        int64          `json:"userId"`
	UserName      string         `json:"userName"`
	CheckOutDate  time.Time      `json:"checkOutDate"`
	DueDate       time.Time      `json:"dueDate"`
	ReturnDate    *time.Time     `json:"returnDate,omitempty"`
	Status        CheckOutStatus `json:"status"`
	Notes         string         `json:"notes,omitempty"`
}

// IsCurrent reports whether the book has not been returned yet.
func (c CheckOut) IsCurrent() bool {
	return c.ReturnDate == nil
}

// DaysLeft is the number of days until the due date, rounded up. Zero means
// due today, negative means overdue by that many days.
func (c CheckOut) DaysLeft(now time.Time) int {
	return int(math.Ceil(c.DueDate.Sub(now).Hours() / 24))
}

// IsOverdue reports whether an unreturned loan is past its due date.
func (c CheckOut) IsOverdue(now time.Time) bool {
	return c.IsCurrent() && c.DaysLeft(now) < 0
}

// ReturnedLate reports whether a returned loan came back after the due date.
func (c CheckOut) ReturnedLate() bool {
	return c.ReturnDate != nil && c.ReturnDate.After(c.DueDate)
}
