package models

import "time"

// StudentStatus tracks the admission lifecycle of a student record.
type StudentStatus string

const (
	StudentStatusPending    StudentStatus = "PENDING"
	StudentStatusApproved   StudentStatus = "APPROVED"
	StudentStatusRejected   StudentStatus = "REJECTED"
	StudentStatusWaitlisted StudentStatus = "WAITLISTED"
	StudentStatusGraduated  StudentStatus = "GRADUATED"
	StudentStatusDeleted    StudentStatus = "DELETED"
)

// Semester bounds for the standard eight-semester programme.
const (
	MinSemester = 1
	MaxSemester = 8
)

// Student represents one enrolled individual in the registry.
type Student struct {
	ID           string        `db:"id" json:"id"`
	RegisterNo   string        `db:"register_no" json:"register_no"`
	FullName     string        `db:"full_name" json:"full_name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	DepartmentID *string       `db:"department_id" json:"department_id,omitempty"`
	Semester     int           `db:"semester" json:"semester"`
	Status       StudentStatus `db:"status" json:"status"`
	HostelRoomID *string       `db:"hostel_room_id" json:"hostel_room_id,omitempty"`
	BusRouteID   *string       `db:"bus_route_id" json:"bus_route_id,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	Status       *StudentStatus
	Semester     *int
	DepartmentID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ValidStatusTransition reports whether an admission decision is allowed
// from the current status. Semester advancement and graduation are owned
// by the promotion subsystem, not by admission updates.
func ValidStatusTransition(from, to StudentStatus) bool {
	switch from {
	case StudentStatusPending:
		return to == StudentStatusApproved || to == StudentStatusRejected || to == StudentStatusWaitlisted
	case StudentStatusWaitlisted:
		return to == StudentStatusApproved || to == StudentStatusRejected
	case StudentStatusApproved, StudentStatusRejected, StudentStatusGraduated:
		return to == StudentStatusDeleted
	default:
		return false
	}
}
