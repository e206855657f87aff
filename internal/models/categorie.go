package models

import "time"

// Categorie groups products for filtering and reporting
type Categorie struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Nom         string `gorm:"uniqueIndex;not null" json:"nom"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Categorie model
func (Categorie) TableName() string {
	return "categories"
}
