package orders

import (
	"errors"
	"testing"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
)

func (f *fixture) acceptedDelivery(t *testing.T) (*models.Commande, *models.Livraison) {
	t.Helper()
	commande := f.createOrder(t)
	if _, err := f.svc.ChangeStatus(commande.ID, models.CommandeEnCours, &f.fournisseur); err != nil {
		t.Fatalf("accept: %v", err)
	}
	var livraison models.Livraison
	if err := f.db.Where("commande_id = ?", commande.ID).First(&livraison).Error; err != nil {
		t.Fatalf("load delivery: %v", err)
	}
	return commande, &livraison
}

func TestCompleteDeliveryCascadesToOrder(t *testing.T) {
	f := setup(t)
	commande, livraison := f.acceptedDelivery(t)

	statut := models.LivraisonLivree
	updated, err := f.svc.UpdateLivraison(&f.gestionnaire, livraison.ID,
		LivraisonUpdateInput{Statut: &statut})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Statut != models.LivraisonLivree {
		t.Errorf("delivery statut = %s, want livree", updated.Statut)
	}

	var reloaded models.Commande
	if err := f.db.First(&reloaded, commande.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Statut != models.CommandeLivree {
		t.Errorf("order statut = %s, want livree", reloaded.Statut)
	}
	if got := f.notifCount(t, f.gestionnaire.ID, models.NotifLivraisonTerminee); got != 1 {
		t.Errorf("livraison_terminee notifications = %d, want 1", got)
	}

	// Re-marking as livree must not notify again
	if _, err := f.svc.UpdateLivraison(&f.gestionnaire, livraison.ID,
		LivraisonUpdateInput{Statut: &statut}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got := f.notifCount(t, f.gestionnaire.ID, models.NotifLivraisonTerminee); got != 1 {
		t.Errorf("livraison_terminee after repeat = %d, want still 1", got)
	}
}

func TestCancelDeliveryKeepsStock(t *testing.T) {
	f := setup(t)
	commande, livraison := f.acceptedDelivery(t)

	statut := models.LivraisonAnnulee
	if _, err := f.svc.UpdateLivraison(&f.gestionnaire, livraison.ID,
		LivraisonUpdateInput{Statut: &statut}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Stock stays where acceptance put it
	if got := f.stock(t, f.produitA.ID); got != 13 {
		t.Errorf("stock A after cancel = %d, want 13", got)
	}
	var reloaded models.Commande
	if err := f.db.First(&reloaded, commande.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Statut != models.CommandeEnCours {
		t.Errorf("order statut = %s, want en_cours (no cascade on cancel)", reloaded.Statut)
	}
	if got := f.notifCount(t, f.gestionnaire.ID, models.NotifLivraisonAnnulee); got != 1 {
		t.Errorf("livraison_annulee notifications = %d, want 1", got)
	}
}

func TestDeliverySupplierOwnership(t *testing.T) {
	f := setup(t)
	_, livraison := f.acceptedDelivery(t)

	autre := models.User{Email: "autre@test.local", Role: models.RoleFournisseur}
	if err := f.db.Create(&autre).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	autreFournisseur := models.Fournisseur{UserID: autre.ID, Nom: "Autre"}
	if err := f.db.Create(&autreFournisseur).Error; err != nil {
		t.Fatalf("fournisseur: %v", err)
	}
	autre.Fournisseur = &autreFournisseur

	statut := models.LivraisonLivree
	_, err := f.svc.UpdateLivraison(&autre, livraison.ID, LivraisonUpdateInput{Statut: &statut})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign supplier update: got %v, want forbidden", err)
	}

	owner := f.supplierUser
	owner.Fournisseur = &f.fournisseur
	if _, err := f.svc.UpdateLivraison(&owner, livraison.ID, LivraisonUpdateInput{Statut: &statut}); err != nil {
		t.Errorf("owner update: %v", err)
	}
}

func TestUpdateLivraisonValidation(t *testing.T) {
	f := setup(t)
	_, livraison := f.acceptedDelivery(t)

	bad := models.LivraisonStatut("expediee")
	_, err := f.svc.UpdateLivraison(&f.gestionnaire, livraison.ID, LivraisonUpdateInput{Statut: &bad})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("bad statut: got %v, want validation error", err)
	}

	missing := uint(9999)
	_, err = f.svc.UpdateLivraison(&f.gestionnaire, livraison.ID, LivraisonUpdateInput{CommandeID: &missing})
	if !errors.As(err, &verr) {
		t.Errorf("missing commande: got %v, want validation error", err)
	}

	if _, err := f.svc.GetLivraison(9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get missing: got %v, want not found", err)
	}
}
