package models

import "time"

// LigneDeCommande is one product line inside an order. Lines are immutable
// in the normal flow once the order is created.
type LigneDeCommande struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	CommandeID uint    `gorm:"not null;index" json:"commande_id"`
	ProduitID  uint    `gorm:"not null;index" json:"produit_id"`
	Quantite   int     `gorm:"not null" json:"quantite"`
	Prix       float64 `gorm:"not null" json:"prix"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Commande *Commande `gorm:"foreignKey:CommandeID" json:"commande,omitempty"`
	Produit  *Produit  `gorm:"foreignKey:ProduitID" json:"produit,omitempty"`
}

// TableName specifies the table name for LigneDeCommande model
func (LigneDeCommande) TableName() string {
	return "lignes_de_commande"
}
