package models

import "time"

// LivraisonStatut defines possible delivery statuses
type LivraisonStatut string

const (
	LivraisonEnAttente LivraisonStatut = "en_attente"
	LivraisonLivree    LivraisonStatut = "livree"
	LivraisonAnnulee   LivraisonStatut = "annulee"
)

// Valid reports whether s is one of the known delivery statuses
func (s LivraisonStatut) Valid() bool {
	switch s {
	case LivraisonEnAttente, LivraisonLivree, LivraisonAnnulee:
		return true
	}
	return false
}

// Livraison tracks fulfillment of an accepted order. Exactly one is created
// when the supplier accepts the order; marking it "livree" cascades the
// parent order to the same status.
type Livraison struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CommandeID    uint            `gorm:"not null;index" json:"commande_id"`
	FournisseurID uint            `gorm:"not null;index" json:"fournisseur_id"`
	Date          time.Time       `gorm:"not null" json:"date"`
	Statut        LivraisonStatut `gorm:"default:'en_attente';index" json:"statut"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Commande *Commande `gorm:"foreignKey:CommandeID" json:"commande,omitempty"`
}

// TableName specifies the table name for Livraison model
func (Livraison) TableName() string {
	return "livraisons"
}
