package models

import "time"

// Notification types emitted by the order/delivery/stock workflows
const (
	NotifNouvelleCommande  = "nouvelle_commande"
	NotifCommandeAcceptee  = "commande_acceptee"
	NotifCommandeRefusee   = "commande_refusee"
	NotifLivraisonTerminee = "livraison_terminee"
	NotifLivraisonAnnulee  = "livraison_annulee"
	NotifStockBas          = "stock_bas"
	NotifDemandeCreation   = "demande_creation"
)

// Notification is a per-user inbox row written by workflow fan-out.
// Low-stock notifications are deduplicated against unread rows with the
// same (user, type, titre, message) before insert.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"index" json:"type"`
	Titre        string    `json:"titre"`
	Message      string    `json:"message"`
	EstLue       bool      `gorm:"column:est_lue;default:false;index" json:"est_lue"`
	DateCreation time.Time `gorm:"column:date_creation" json:"date_creation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
