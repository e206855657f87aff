package models

import "time"

// Fournisseur is the supplier record, 1:1 with a User holding role "fournisseur".
// Contact fields are denormalized copies of the linked user and are written
// through on user updates.
type Fournisseur struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom,omitempty"`
	Email     string `json:"email"`
	Telephone string `json:"telephone,omitempty"`
	Adresse   string `json:"adresse,omitempty"`
	Image     string `json:"image,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Fournisseur model
func (Fournisseur) TableName() string {
	return "fournisseurs"
}
