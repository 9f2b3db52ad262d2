package entity

// Roles válidos (claim "role" del token).
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)
