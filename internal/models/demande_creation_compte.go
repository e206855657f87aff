package models

import "time"

// DemandeStatut defines possible account-request statuses
type DemandeStatut string

const (
	DemandeEnAttente DemandeStatut = "en_attente"
	DemandeApprouvee DemandeStatut = "approuvee"
	DemandeRefusee   DemandeStatut = "refusee"
)

// DemandeCreationCompte is a pending account-creation request. Registration
// never creates a User directly; an admin approves the request, which then
// materializes the account with the already-hashed password.
type DemandeCreationCompte struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Prenom      string        `gorm:"not null" json:"prenom"`
	Nom         string        `gorm:"not null" json:"nom"`
	Telephone   string        `json:"telephone,omitempty"`
	Adresse     string        `json:"adresse,omitempty"`
	RoleDemande string        `gorm:"column:role_demande;not null" json:"role_demande"`
	Email       string        `gorm:"uniqueIndex;not null" json:"email"`
	Password    string        `gorm:"not null" json:"-"`
	Photo       string        `json:"photo,omitempty"`
	Statut      DemandeStatut `gorm:"default:'en_attente';index" json:"statut"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for DemandeCreationCompte model
func (DemandeCreationCompte) TableName() string {
	return "demandes_creation_compte"
}
