package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/gestistock/gestistock/internal/apperr"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	svc          *Service
	gestionnaire models.User
	supplierUser models.User
	fournisseur  models.Fournisseur
	produitA     models.Produit
	produitB     models.Produit
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Fournisseur{}, &models.Categorie{},
		&models.Produit{}, &models.Commande{}, &models.LigneDeCommande{},
		&models.Livraison{}, &models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db, svc: NewService(db, notify.NewNotifier(nil))}

	f.gestionnaire = models.User{Prenom: "Moussa", Nom: "Fall",
		Email: "gest@test.local", Role: models.RoleGestionnaire}
	f.supplierUser = models.User{Prenom: "Fatou", Nom: "Ndiaye",
		Email: "four@test.local", Role: models.RoleFournisseur}
	for _, u := range []*models.User{&f.gestionnaire, &f.supplierUser} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("user: %v", err)
		}
	}

	f.fournisseur = models.Fournisseur{UserID: f.supplierUser.ID,
		Nom: "Ndiaye", Prenom: "Fatou", Email: "four@test.local"}
	if err := db.Create(&f.fournisseur).Error; err != nil {
		t.Fatalf("fournisseur: %v", err)
	}

	categorie := models.Categorie{Nom: "Papeterie"}
	if err := db.Create(&categorie).Error; err != nil {
		t.Fatalf("categorie: %v", err)
	}
	f.produitA = models.Produit{Nom: "Ramette A4", Stock: 10, SeuilAlerte: 2,
		Prix: 3500, CategorieID: categorie.ID, FournisseurID: &f.fournisseur.ID}
	f.produitB = models.Produit{Nom: "Stylo bleu", Stock: 4, SeuilAlerte: 2,
		Prix: 200, CategorieID: categorie.ID, FournisseurID: &f.fournisseur.ID}
	for _, p := range []*models.Produit{&f.produitA, &f.produitB} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("produit: %v", err)
		}
	}
	return f
}

func (f *fixture) createOrder(t *testing.T) *models.Commande {
	t.Helper()
	commande, err := f.svc.Create(CreateInput{
		Date:          time.Now(),
		Statut:        models.CommandeEnAttente,
		Total:         3*f.produitA.Prix + 5*f.produitB.Prix,
		UserID:        f.gestionnaire.ID,
		FournisseurID: f.fournisseur.ID,
		Lignes: []LigneInput{
			{ProduitID: f.produitA.ID, Quantite: 3, Prix: f.produitA.Prix},
			{ProduitID: f.produitB.ID, Quantite: 5, Prix: f.produitB.Prix},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return commande
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var produit models.Produit
	if err := f.db.First(&produit, id).Error; err != nil {
		t.Fatalf("load produit: %v", err)
	}
	return produit.Stock
}

func (f *fixture) notifCount(t *testing.T, userID uint, typ string) int64 {
	t.Helper()
	var count int64
	f.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, typ).Count(&count)
	return count
}

func TestCreateOrderLeavesStockAndNotifiesSupplier(t *testing.T) {
	f := setup(t)
	commande := f.createOrder(t)

	if commande.Statut != models.CommandeEnAttente {
		t.Errorf("statut = %s, want en_attente", commande.Statut)
	}
	if len(commande.LignesDeCommande) != 2 {
		t.Fatalf("lignes = %d, want 2", len(commande.LignesDeCommande))
	}
	if got := f.stock(t, f.produitA.ID); got != 10 {
		t.Errorf("stock A after create = %d, want 10", got)
	}
	if got := f.stock(t, f.produitB.ID); got != 4 {
		t.Errorf("stock B after create = %d, want 4", got)
	}
	if got := f.notifCount(t, f.supplierUser.ID, models.NotifNouvelleCommande); got != 1 {
		t.Errorf("supplier nouvelle_commande notifications = %d, want 1", got)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(CreateInput{
		Date:          time.Now(),
		Statut:        models.CommandeEnAttente,
		UserID:        f.gestionnaire.ID,
		FournisseurID: f.fournisseur.ID,
		Lignes:        []LigneInput{{ProduitID: f.produitA.ID, Quantite: 0, Prix: -1}},
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["lignes.0.quantite"]; !ok {
		t.Errorf("missing quantite error, fields: %v", verr.Fields)
	}
	if _, ok := verr.Fields["lignes.0.prix"]; !ok {
		t.Errorf("missing prix error, fields: %v", verr.Fields)
	}
}

func TestAcceptOrderMovesStockAndCreatesDelivery(t *testing.T) {
	f := setup(t)
	commande := f.createOrder(t)

	updated, err := f.svc.ChangeStatus(commande.ID, models.CommandeEnCours, &f.fournisseur)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if updated.Statut != models.CommandeEnCours {
		t.Errorf("statut = %s, want en_cours", updated.Statut)
	}
	if got := f.stock(t, f.produitA.ID); got != 13 {
		t.Errorf("stock A after accept = %d, want 13", got)
	}
	if got := f.stock(t, f.produitB.ID); got != 9 {
		t.Errorf("stock B after accept = %d, want 9", got)
	}

	var livraison models.Livraison
	if err := f.db.Where("commande_id = ?", commande.ID).First(&livraison).Error; err != nil {
		t.Fatalf("expected delivery row: %v", err)
	}
	if livraison.Statut != models.LivraisonEnAttente {
		t.Errorf("delivery statut = %s, want en_attente", livraison.Statut)
	}
	if livraison.FournisseurID != f.fournisseur.ID {
		t.Errorf("delivery fournisseur = %d, want %d", livraison.FournisseurID, f.fournisseur.ID)
	}
	if got := f.notifCount(t, f.gestionnaire.ID, models.NotifCommandeAcceptee); got != 1 {
		t.Errorf("commande_acceptee notifications = %d, want 1", got)
	}
}

func TestRejectOrderOnlyNotifies(t *testing.T) {
	f := setup(t)
	commande := f.createOrder(t)

	updated, err := f.svc.ChangeStatus(commande.ID, models.CommandeAnnulee, &f.fournisseur)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Statut != models.CommandeAnnulee {
		t.Errorf("statut = %s, want annulee", updated.Statut)
	}
	if got := f.stock(t, f.produitA.ID); got != 10 {
		t.Errorf("stock A after reject = %d, want 10", got)
	}
	var count int64
	f.db.Model(&models.Livraison{}).Where("commande_id = ?", commande.ID).Count(&count)
	if count != 0 {
		t.Errorf("deliveries after reject = %d, want 0", count)
	}
	if got := f.notifCount(t, f.gestionnaire.ID, models.NotifCommandeRefusee); got != 1 {
		t.Errorf("commande_refusee notifications = %d, want 1", got)
	}
}

func TestChangeStatusOwnershipAndTarget(t *testing.T) {
	f := setup(t)
	commande := f.createOrder(t)

	if _, err := f.svc.ChangeStatus(commande.ID, models.CommandeEnCours, nil); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("nil supplier: got %v, want forbidden", err)
	}

	autre := models.User{Email: "autre@test.local", Role: models.RoleFournisseur}
	if err := f.db.Create(&autre).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	autreFournisseur := models.Fournisseur{UserID: autre.ID, Nom: "Autre"}
	if err := f.db.Create(&autreFournisseur).Error; err != nil {
		t.Fatalf("fournisseur: %v", err)
	}
	if _, err := f.svc.ChangeStatus(commande.ID, models.CommandeEnCours, &autreFournisseur); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign supplier: got %v, want forbidden", err)
	}

	var verr *apperr.ValidationError
	_, err := f.svc.ChangeStatus(commande.ID, models.CommandeLivree, &f.fournisseur)
	if !errors.As(err, &verr) {
		t.Errorf("livree target: got %v, want validation error", err)
	}
}

func TestDeletePermissions(t *testing.T) {
	f := setup(t)
	supplierWithLink := f.supplierUser
	supplierWithLink.Fournisseur = &f.fournisseur

	// Pending order: supplier cannot delete it
	pending := f.createOrder(t)
	if err := f.svc.Delete(&supplierWithLink, pending.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("supplier delete pending: got %v, want forbidden", err)
	}

	// Accepted order: supplier can delete it, lines go too
	accepted := f.createOrder(t)
	if _, err := f.svc.ChangeStatus(accepted.ID, models.CommandeEnCours, &f.fournisseur); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := f.svc.Delete(&supplierWithLink, accepted.ID); err != nil {
		t.Errorf("supplier delete accepted: %v", err)
	}
	var lignes int64
	f.db.Model(&models.LigneDeCommande{}).Where("commande_id = ?", accepted.ID).Count(&lignes)
	if lignes != 0 {
		t.Errorf("lines after delete = %d, want 0", lignes)
	}

	// Staff deletes anything, including pending
	if err := f.svc.Delete(&f.gestionnaire, pending.ID); err != nil {
		t.Errorf("staff delete pending: %v", err)
	}

	if err := f.svc.Delete(&f.gestionnaire, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete missing: got %v, want not found", err)
	}
}
