package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ExportStatsPDF renders the staff dashboard aggregates as a printable
// one-page summary.
func ExportStatsPDF(stats *Stats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "GestiStock - Rapport de stock")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Genere le %s", time.Now().Format("02/01/2006 15:04")))
	pdf.Ln(12)

	kpi := func(label string, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(70, 8, label)
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(0, 8, value)
		pdf.Ln(7)
	}

	kpi("Produits", fmt.Sprintf("%d", stats.TotalProduits))
	kpi("Fournisseurs", fmt.Sprintf("%d", stats.TotalFournisseurs))
	kpi("Commandes", fmt.Sprintf("%d", stats.TotalCommandes))
	kpi("Commandes en attente", fmt.Sprintf("%d", stats.CommandesEnAttente))
	kpi("Valeur du stock", fmt.Sprintf("%.2f EUR", stats.ValeurStock))
	kpi("Produits en rupture", fmt.Sprintf("%d (%.1f%%)", stats.ProduitsRupture, stats.TauxRupture))
	pdf.Ln(6)

	if len(stats.TopProduits) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Produits les plus commandes")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, p := range stats.TopProduits {
			pdf.Cell(100, 6, p.Nom)
			pdf.Cell(0, 6, fmt.Sprintf("%d", p.Total))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	if len(stats.ProduitsRuptureList) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Produits sous leur seuil d'alerte")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, p := range stats.ProduitsRuptureList {
			pdf.Cell(100, 6, p.Nom)
			pdf.Cell(0, 6, fmt.Sprintf("stock %d / seuil %d", p.Stock, p.SeuilAlerte))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
