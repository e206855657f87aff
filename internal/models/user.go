package models

import (
	"time"
)

// User roles gating route access
const (
	RoleAdmin        = "admin"
	RoleGestionnaire = "gestionnaire"
	RoleFournisseur  = "fournisseur"
)

// User represents an application account.
// Wire names stay in French: the admin and supplier SPAs consume them as-is.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Prenom    string `json:"prenom"`
	Nom       string `json:"nom"`
	Telephone string `json:"telephone,omitempty"`
	Adresse   string `json:"adresse,omitempty"`
	Role      string `gorm:"default:'gestionnaire';index" json:"role"`
	Photo     string `json:"photo,omitempty"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Fournisseur *Fournisseur `gorm:"foreignKey:UserID" json:"fournisseur,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user manages the inventory (admin or gestionnaire)
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleGestionnaire
}
