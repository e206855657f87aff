// Package reports computes the dashboard aggregates for staff and the
// per-supplier statistics for the supplier portal.
package reports

import (
	"time"

	"github.com/gestistock/gestistock/internal/models"
	"gorm.io/gorm"
)

// Service runs the read-only reporting queries
type Service struct {
	db *gorm.DB
}

// NewService creates a reporting service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// MonthCount is one month of order volume
type MonthCount struct {
	Mois  string `json:"mois"`
	Total int64  `json:"total"`
}

// CategoryStock is the stock held per category
type CategoryStock struct {
	Categorie string `json:"categorie"`
	Stock     int64  `json:"stock"`
}

// TopProduct is a most-ordered product with its ordered volume
type TopProduct struct {
	Nom             string  `json:"nom"`
	Total           int64   `json:"total,omitempty"`
	TotalCommande   int64   `json:"total_commande,omitempty"`
	ChiffreAffaires float64 `json:"chiffre_affaires,omitempty"`
}

// TopClient is a most-frequent ordering user for a supplier
type TopClient struct {
	Prenom          string  `json:"prenom"`
	Nom             string  `json:"nom"`
	NombreCommandes int64   `json:"nombre_commandes"`
	ChiffreAffaires float64 `json:"chiffre_affaires"`
}

// StatusSlice is one wedge of a status distribution chart
type StatusSlice struct {
	Statut      string  `json:"statut"`
	Nombre      int64   `json:"nombre"`
	Pourcentage float64 `json:"pourcentage"`
}

// Stats is the staff dashboard payload
type Stats struct {
	TotalProduits          int64            `json:"totalProduits"`
	TotalFournisseurs      int64            `json:"totalFournisseurs"`
	TotalCommandes         int64            `json:"totalCommandes"`
	ProduitsRupture        int64            `json:"produitsRupture"`
	ValeurStock            float64          `json:"valeurStock"`
	CommandesEnAttente     int64            `json:"commandesEnAttente"`
	CommandesParMois       []MonthCount     `json:"commandesParMois"`
	RepartitionCategories  []CategoryStock  `json:"repartitionCategories"`
	TopProduits            []TopProduct     `json:"topProduits"`
	ProduitsRuptureList    []models.Produit `json:"produitsRuptureList"`
	TauxRupture            float64          `json:"tauxRupture"`
}

// monthExpr returns the per-dialect SQL extracting the month number of the
// order date. Production runs on PostgreSQL; tests run on SQLite.
func (s *Service) monthExpr() string {
	if s.db.Dialector.Name() == "postgres" {
		return "CAST(date_part('month', date) AS integer)"
	}
	return "CAST(strftime('%m', date) AS integer)"
}

func monthLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()[:3]
}

func (s *Service) ordersPerMonth(scope func(*gorm.DB) *gorm.DB) ([]MonthCount, error) {
	type row struct {
		Mois  int
		Total int64
	}
	var rows []row
	expr := s.monthExpr()

	q := s.db.Model(&models.Commande{}).
		Select(expr+" AS mois, count(*) AS total").
		Where("date >= ?", time.Now().AddDate(-1, 0, 0)).
		Group(expr).
		Order("mois")
	if scope != nil {
		q = scope(q)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]MonthCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthCount{Mois: monthLabel(r.Mois), Total: r.Total})
	}
	return out, nil
}

// GlobalStats builds the staff dashboard aggregates
func (s *Service) GlobalStats() (*Stats, error) {
	stats := &Stats{
		CommandesParMois:      []MonthCount{},
		RepartitionCategories: []CategoryStock{},
		TopProduits:           []TopProduct{},
		ProduitsRuptureList:   []models.Produit{},
	}

	if err := s.db.Model(&models.Produit{}).Count(&stats.TotalProduits).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Fournisseur{}).Count(&stats.TotalFournisseurs).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Commande{}).Count(&stats.TotalCommandes).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Produit{}).
		Where("stock <= seuil_alerte").Count(&stats.ProduitsRupture).Error; err != nil {
		return nil, err
	}

	var valeur *float64
	if err := s.db.Model(&models.Produit{}).
		Select("SUM(stock * prix)").Scan(&valeur).Error; err != nil {
		return nil, err
	}
	if valeur != nil {
		stats.ValeurStock = *valeur
	}

	if err := s.db.Model(&models.Commande{}).
		Where("statut = ?", models.CommandeEnAttente).
		Count(&stats.CommandesEnAttente).Error; err != nil {
		return nil, err
	}

	parMois, err := s.ordersPerMonth(nil)
	if err != nil {
		return nil, err
	}
	stats.CommandesParMois = parMois

	if err := s.db.Model(&models.Categorie{}).
		Select("categories.nom AS categorie, COALESCE(SUM(produits.stock), 0) AS stock").
		Joins("LEFT JOIN produits ON categories.id = produits.categorie_id").
		Group("categories.id, categories.nom").
		Scan(&stats.RepartitionCategories).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.LigneDeCommande{}).
		Select("produits.nom AS nom, SUM(lignes_de_commande.quantite) AS total").
		Joins("JOIN produits ON lignes_de_commande.produit_id = produits.id").
		Group("produits.nom").
		Order("total DESC").
		Limit(5).
		Scan(&stats.TopProduits).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Categorie").
		Where("stock <= seuil_alerte").
		Find(&stats.ProduitsRuptureList).Error; err != nil {
		return nil, err
	}

	if stats.TotalProduits > 0 {
		stats.TauxRupture = round1(float64(stats.ProduitsRupture) / float64(stats.TotalProduits) * 100)
	}

	return stats, nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
