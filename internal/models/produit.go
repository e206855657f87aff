package models

import "time"

// Produit is an inventory item. Stock counts units on hand; SeuilAlerte is
// the threshold at or below which low-stock notifications fire.
type Produit struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Nom           string  `gorm:"uniqueIndex;not null" json:"nom"`
	Description   string  `gorm:"type:text" json:"description,omitempty"`
	Stock         int     `gorm:"not null" json:"stock"`
	SeuilAlerte   int     `gorm:"column:seuil_alerte;default:5" json:"seuil_alerte"`
	Prix          float64 `json:"prix"`
	Image         string  `json:"image,omitempty"`
	CategorieID   uint    `gorm:"not null;index" json:"categorie_id"`
	FournisseurID *uint   `gorm:"index" json:"fournisseur_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Categorie   *Categorie   `gorm:"foreignKey:CategorieID" json:"categorie,omitempty"`
	Fournisseur *Fournisseur `gorm:"foreignKey:FournisseurID" json:"fournisseur,omitempty"`
}

// TableName specifies the table name for Produit model
func (Produit) TableName() string {
	return "produits"
}

// EnRupture reports whether the product is at or below its alert threshold
func (p *Produit) EnRupture() bool {
	return p.Stock <= p.SeuilAlerte
}
