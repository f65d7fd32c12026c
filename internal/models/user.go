package models

import "strings"

type Role string

const (
	Student  Role = "student"
	Lecturer Role = "lecturer"
	PRL      Role = "prl" // principal lecturer
	PL       Role = "pl"  // program leader
)

var Roles = []Role{Student, Lecturer, PRL, PL}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case Student, Lecturer, PRL, PL:
		return true
	default:
		return false
	}
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func (r Role) Title() string {
	switch r {
	case Student:
		return "Student"
	case Lecturer:
		return "Lecturer"
	case PRL:
		return "Principal Lecturer"
	case PL:
		return "Program Leader"
	default:
		return "Guest"
	}
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=student lecturer prl pl"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
