package domain

import "time"

// StaffRole enumerates hotel operator roles.
type StaffRole string

const (
	StaffRoleFrontDesk StaffRole = "FRONT_DESK"
	StaffRoleManager   StaffRole = "MANAGER"
	StaffRoleAdmin     StaffRole = "ADMIN"
)

// StaffMember models a hotel operator or administrator.
type StaffMember struct {
	ID           string
	HotelID      string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Department   *Department
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
