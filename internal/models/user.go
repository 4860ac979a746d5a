package models

// UserRole distinguishes the three actor kinds in the system.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleSubsidiary  UserRole = "subsidiary"
	RoleMaintenance UserRole = "maintenance"
)

// User is a minimal actor record; authentication lives outside this service.
type User struct {
	ID           int64    `db:"id" json:"id"`
	Name         string   `db:"name" json:"name"`
	Role         UserRole `db:"role" json:"role"`
	SubsidiaryID *int64   `db:"subsidiary_id" json:"subsidiaryId,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
