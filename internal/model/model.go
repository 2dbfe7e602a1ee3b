// Package model defines the core domain types for the library lending system.
package model

import "time"

// BookStatus is the derived lending status of a book.
type BookStatus string

const (
	BookAvailable   BookStatus = "AVAILABLE"
	BookUnavailable BookStatus = "UNAVAILABLE"
	BookMaintenance BookStatus = "MAINTENANCE"
)

// Book carries the inventory-relevant fields of a catalog entry.
// Title and the rest of the catalog record belong to the catalog service.
type Book struct {
	ID               string     `json:"id"`
	Title            string     `json:"title,omitempty"`
	CategoryID       string     `json:"categoryId,omitempty"`
	TotalCopies      int        `json:"totalCopies"`
	AvailableCopies  int        `json:"availableCopies"`
	UnderMaintenance bool       `json:"underMaintenance"`
	Status           BookStatus `json:"status"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationOverdue   ReservationStatus = "OVERDUE"
	ReservationReturned  ReservationStatus = "RETURNED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Outstanding reports whether a reservation still holds a copy.
func (s ReservationStatus) Outstanding() bool {
	return s == ReservationActive || s == ReservationOverdue
}

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationReturned || s == ReservationCancelled
}

// Reservation is a user's claim on one copy of a book for a bounded period.
type Reservation struct {
	ID              string            `json:"id"`
	BookID          string            `json:"bookId"`
	UserID          string            `json:"userId"`
	ReservationDate time.Time         `json:"reservationDate"`
	DueDate         time.Time         `json:"dueDate"`
	ReturnDate      *time.Time        `json:"returnDate,omitempty"`
	ReservationDays int               `json:"reservationDays"`
	RenewalCount    int               `json:"renewalCount"`
	Status          ReservationStatus `json:"status"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// DashboardStats summarises a member's reservations.
type DashboardStats struct {
	BooksReserved int `json:"booksReserved"`
	BooksDueSoon  int `json:"booksDueSoon"`
	TotalBorrowed int `json:"totalBorrowed"`
}

// ReserveRequest is the payload for reserving a copy of a book.
type ReserveRequest struct {
	ReservationDays int `json:"reservationDays" validate:"required,oneof=7 14 21"`
}

// InventoryRequest is the payload a librarian sends after the catalog changed
// a book's total copy count.
type InventoryRequest struct {
	TotalCopies int `json:"totalCopies" validate:"required,gte=1"`
}

// MaintenanceRequest toggles administrative withdrawal of a book.
type MaintenanceRequest struct {
	Maintenance *bool `json:"maintenance" validate:"required"`
}

// Envelope is the standard JSON response wrapper.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ReservationEvent is emitted after a reservation changed state.
type ReservationEvent struct {
	Type          string            `json:"type"`
	ReservationID string            `json:"reservationId"`
	BookID        string            `json:"bookId"`
	UserID        string            `json:"userId"`
	Status        ReservationStatus `json:"status"`
	DueDate       time.Time         `json:"dueDate"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// Event types.
const (
	EventReserved  = "reservation.reserved"
	EventRenewed   = "reservation.renewed"
	EventCancelled = "reservation.cancelled"
	EventReturned  = "reservation.returned"
)
