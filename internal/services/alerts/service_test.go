package alerts

import (
	"testing"

	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Categorie{}, &models.Produit{}, &models.Notification{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, NewService(db, notify.NewNotifier(nil))
}

func seedStaff(t *testing.T, db *gorm.DB) (models.User, models.User, models.User) {
	t.Helper()
	admin := models.User{Email: "admin@test.local", Role: models.RoleAdmin}
	gestionnaire := models.User{Email: "gest@test.local", Role: models.RoleGestionnaire}
	fournisseur := models.User{Email: "four@test.local", Role: models.RoleFournisseur}
	for _, u := range []*models.User{&admin, &gestionnaire, &fournisseur} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	return admin, gestionnaire, fournisseur
}

func countAlerts(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, models.NotifStockBas).Count(&count)
	return count
}

func TestCheckProductAlertsStaffOnly(t *testing.T) {
	db, svc := setup(t)
	admin, gestionnaire, fournisseur := seedStaff(t, db)

	produit := models.Produit{Nom: "Ramette A4", Stock: 2, SeuilAlerte: 5}
	if err := svc.CheckProduct(&produit); err != nil {
		t.Fatalf("check: %v", err)
	}

	if got := countAlerts(t, db, admin.ID); got != 1 {
		t.Errorf("admin alerts = %d, want 1", got)
	}
	if got := countAlerts(t, db, gestionnaire.ID); got != 1 {
		t.Errorf("gestionnaire alerts = %d, want 1", got)
	}
	if got := countAlerts(t, db, fournisseur.ID); got != 0 {
		t.Errorf("fournisseur alerts = %d, want 0", got)
	}
}

func TestCheckProductAboveThresholdIsQuiet(t *testing.T) {
	db, svc := setup(t)
	admin, _, _ := seedStaff(t, db)

	produit := models.Produit{Nom: "Ramette A4", Stock: 6, SeuilAlerte: 5}
	if err := svc.CheckProduct(&produit); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := countAlerts(t, db, admin.ID); got != 0 {
		t.Errorf("alerts = %d, want 0", got)
	}
}

func TestCheckProductDeduplicatesUnreadAlerts(t *testing.T) {
	db, svc := setup(t)
	admin, _, _ := seedStaff(t, db)

	produit := models.Produit{Nom: "Ramette A4", Stock: 2, SeuilAlerte: 5}
	for i := 0; i < 3; i++ {
		if err := svc.CheckProduct(&produit); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if got := countAlerts(t, db, admin.ID); got != 1 {
		t.Errorf("alerts after repeats = %d, want 1", got)
	}

	// Once read, the next identical check alerts again
	if err := db.Model(&models.Notification{}).
		Where("user_id = ?", admin.ID).Update("est_lue", true).Error; err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := svc.CheckProduct(&produit); err != nil {
		t.Fatalf("check after read: %v", err)
	}
	if got := countAlerts(t, db, admin.ID); got != 2 {
		t.Errorf("alerts after read = %d, want 2", got)
	}

	// A different stock level is a different message, so it alerts
	produit.Stock = 1
	if err := svc.CheckProduct(&produit); err != nil {
		t.Fatalf("check new level: %v", err)
	}
	if got := countAlerts(t, db, admin.ID); got != 3 {
		t.Errorf("alerts after new level = %d, want 3", got)
	}
}
