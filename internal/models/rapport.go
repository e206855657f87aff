package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rapport is a stored report snapshot: a free-form type tag plus the
// aggregated payload as JSON.
type Rapport struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Type           string         `gorm:"not null" json:"type"`
	DateGeneration *time.Time     `gorm:"column:date_generation" json:"date_generation,omitempty"`
	Donnees        datatypes.JSON `json:"donnees"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Utilisateur *User `gorm:"foreignKey:UserID" json:"utilisateur,omitempty"`
}

// TableName specifies the table name for Rapport model
func (Rapport) TableName() string {
	return "rapports"
}
