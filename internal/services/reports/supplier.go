package reports

import (
	"github.com/gestistock/gestistock/internal/models"
	"gorm.io/gorm"
)

// SupplierStats is the supplier portal dashboard payload
type SupplierStats struct {
	TotalCommandes     int64   `json:"total_commandes"`
	CommandesEnAttente int64   `json:"commandes_en_attente"`
	CommandesAcceptees int64   `json:"commandes_acceptees"`
	CommandesLivrees   int64   `json:"commandes_livrees"`
	CommandesRefusees  int64   `json:"commandes_refusees"`
	TotalLivraisons    int64   `json:"total_livraisons"`
	LivraisonsEnAttente int64  `json:"livraisons_en_attente"`
	LivraisonsLivrees  int64   `json:"livraisons_livrees"`
	ChiffreAffaires    float64 `json:"chiffre_affaires"`
	TauxAcceptation    float64 `json:"taux_acceptation"`

	CommandesParMois      []MonthCount  `json:"commandes_par_mois"`
	TopProduits           []TopProduct  `json:"top_produits"`
	TopClients            []TopClient   `json:"top_clients"`
	RepartitionCommandes  []StatusSlice `json:"repartition_commandes"`
	RepartitionLivraisons []StatusSlice `json:"repartition_livraisons"`
}

func (s *Service) countCommandes(fournisseurID uint, statut models.CommandeStatut) (int64, error) {
	var count int64
	q := s.db.Model(&models.Commande{}).Where("fournisseur_id = ?", fournisseurID)
	if statut != "" {
		q = q.Where("statut = ?", statut)
	}
	err := q.Count(&count).Error
	return count, err
}

func (s *Service) countLivraisons(fournisseurID uint, statut models.LivraisonStatut) (int64, error) {
	var count int64
	q := s.db.Model(&models.Livraison{}).
		Joins("JOIN commandes ON commandes.id = livraisons.commande_id").
		Where("commandes.fournisseur_id = ?", fournisseurID)
	if statut != "" {
		q = q.Where("livraisons.statut = ?", statut)
	}
	err := q.Count(&count).Error
	return count, err
}

// SupplierDashboard builds the per-supplier statistics
func (s *Service) SupplierDashboard(fournisseurID uint) (*SupplierStats, error) {
	stats := &SupplierStats{
		CommandesParMois: []MonthCount{},
		TopProduits:      []TopProduct{},
		TopClients:       []TopClient{},
	}

	var err error
	if stats.TotalCommandes, err = s.countCommandes(fournisseurID, ""); err != nil {
		return nil, err
	}
	if stats.CommandesEnAttente, err = s.countCommandes(fournisseurID, models.CommandeEnAttente); err != nil {
		return nil, err
	}
	if stats.CommandesAcceptees, err = s.countCommandes(fournisseurID, models.CommandeEnCours); err != nil {
		return nil, err
	}
	if stats.CommandesLivrees, err = s.countCommandes(fournisseurID, models.CommandeLivree); err != nil {
		return nil, err
	}
	if stats.CommandesRefusees, err = s.countCommandes(fournisseurID, models.CommandeAnnulee); err != nil {
		return nil, err
	}

	if stats.TotalLivraisons, err = s.countLivraisons(fournisseurID, ""); err != nil {
		return nil, err
	}
	if stats.LivraisonsEnAttente, err = s.countLivraisons(fournisseurID, models.LivraisonEnAttente); err != nil {
		return nil, err
	}
	if stats.LivraisonsLivrees, err = s.countLivraisons(fournisseurID, models.LivraisonLivree); err != nil {
		return nil, err
	}

	// Revenue counts accepted and delivered orders
	var ca *float64
	if err := s.db.Model(&models.Commande{}).
		Select("SUM(total)").
		Where("fournisseur_id = ? AND statut IN ?", fournisseurID,
			[]models.CommandeStatut{models.CommandeEnCours, models.CommandeLivree}).
		Scan(&ca).Error; err != nil {
		return nil, err
	}
	if ca != nil {
		stats.ChiffreAffaires = *ca
	}

	if stats.TotalCommandes > 0 {
		stats.TauxAcceptation = round1(float64(stats.CommandesAcceptees+stats.CommandesLivrees) /
			float64(stats.TotalCommandes) * 100)
	}

	stats.CommandesParMois, err = s.ordersPerMonth(func(q *gorm.DB) *gorm.DB {
		return q.Where("fournisseur_id = ?", fournisseurID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.LigneDeCommande{}).
		Select("produits.nom AS nom, SUM(lignes_de_commande.quantite) AS total_commande, SUM(lignes_de_commande.quantite * lignes_de_commande.prix) AS chiffre_affaires").
		Joins("JOIN produits ON lignes_de_commande.produit_id = produits.id").
		Joins("JOIN commandes ON lignes_de_commande.commande_id = commandes.id").
		Where("commandes.fournisseur_id = ?", fournisseurID).
		Group("produits.nom").
		Order("total_commande DESC").
		Limit(5).
		Scan(&stats.TopProduits).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Commande{}).
		Select("users.prenom AS prenom, users.nom AS nom, COUNT(*) AS nombre_commandes, SUM(commandes.total) AS chiffre_affaires").
		Joins("JOIN users ON commandes.user_id = users.id").
		Where("commandes.fournisseur_id = ?", fournisseurID).
		Group("users.id, users.prenom, users.nom").
		Order("nombre_commandes DESC").
		Limit(5).
		Scan(&stats.TopClients).Error; err != nil {
		return nil, err
	}

	stats.RepartitionCommandes = []StatusSlice{
		statusSlice("En attente", stats.CommandesEnAttente, stats.TotalCommandes),
		statusSlice("Acceptées", stats.CommandesAcceptees, stats.TotalCommandes),
		statusSlice("Livrées", stats.CommandesLivrees, stats.TotalCommandes),
		statusSlice("Refusées", stats.CommandesRefusees, stats.TotalCommandes),
	}
	stats.RepartitionLivraisons = []StatusSlice{
		statusSlice("En attente", stats.LivraisonsEnAttente, stats.TotalLivraisons),
		statusSlice("Livrées", stats.LivraisonsLivrees, stats.TotalLivraisons),
	}

	return stats, nil
}

func statusSlice(label string, count, total int64) StatusSlice {
	slice := StatusSlice{Statut: label, Nombre: count}
	if total > 0 {
		slice.Pourcentage = round1(float64(count) / float64(total) * 100)
	}
	return slice
}
