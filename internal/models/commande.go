package models

import "time"

// CommandeStatut defines possible order statuses
type CommandeStatut string

const (
	CommandeEnAttente CommandeStatut = "en_attente" // awaiting supplier decision
	CommandeEnCours   CommandeStatut = "en_cours"   // accepted by the supplier
	CommandeLivree    CommandeStatut = "livree"     // delivery completed
	CommandeAnnulee   CommandeStatut = "annulee"    // rejected or cancelled
)

// Valid reports whether s is one of the known order statuses
func (s CommandeStatut) Valid() bool {
	switch s {
	case CommandeEnAttente, CommandeEnCours, CommandeLivree, CommandeAnnulee:
		return true
	}
	return false
}

// Commande is a replenishment order placed by a staff user with a supplier.
// Accepting it increments product stock by the ordered quantities.
type Commande struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Date          time.Time      `gorm:"not null" json:"date"`
	Total         float64        `json:"total"`
	Statut        CommandeStatut `gorm:"default:'en_attente';index" json:"statut"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	FournisseurID uint           `gorm:"not null;index" json:"fournisseur_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Utilisateur      *User             `gorm:"foreignKey:UserID" json:"utilisateur,omitempty"`
	Fournisseur      *Fournisseur      `gorm:"foreignKey:FournisseurID" json:"fournisseur,omitempty"`
	LignesDeCommande []LigneDeCommande `gorm:"foreignKey:CommandeID;constraint:OnDelete:CASCADE" json:"lignes_de_commande,omitempty"`
}

// TableName specifies the table name for Commande model
func (Commande) TableName() string {
	return "commandes"
}
