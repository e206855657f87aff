package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gestistock/gestistock/internal/config"
	"github.com/gestistock/gestistock/internal/database"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/utils"
)

func main() {
	fmt.Println("GestiStock Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Fournisseur{},
		&models.Categorie{},
		&models.Produit{},
		&models.Commande{},
		&models.LigneDeCommande{},
		&models.Livraison{},
		&models.Notification{},
		&models.Rapport{},
		&models.DemandeCreationCompte{},
		&models.PasswordReset{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		fmt.Printf("Database already has %d users. Clear it first? (y/N): ", userCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted. Database not modified.")
			return
		}
		for _, model := range []interface{}{
			&models.Notification{}, &models.Livraison{}, &models.LigneDeCommande{},
			&models.Commande{}, &models.Produit{}, &models.Categorie{},
			&models.Rapport{}, &models.DemandeCreationCompte{},
			&models.Fournisseur{}, &models.User{},
		} {
			db.Where("1 = 1").Delete(model)
		}
		fmt.Println("Database cleared")
	}

	password, err := utils.HashPassword("password123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.User{
		Prenom: "Awa", Nom: "Diop", Email: "admin@gestistock.test",
		Password: password, Role: models.RoleAdmin, Telephone: "770000001",
	}
	gestionnaire := models.User{
		Prenom: "Moussa", Nom: "Fall", Email: "gestionnaire@gestistock.test",
		Password: password, Role: models.RoleGestionnaire, Telephone: "770000002",
	}
	supplierUser := models.User{
		Prenom: "Fatou", Nom: "Ndiaye", Email: "fournisseur@gestistock.test",
		Password: password, Role: models.RoleFournisseur, Telephone: "770000003",
	}
	for _, u := range []*models.User{&admin, &gestionnaire, &supplierUser} {
		if err := db.Create(u).Error; err != nil {
			log.Fatalf("Failed to create user %s: %v", u.Email, err)
		}
	}
	fmt.Println("Created 3 users (password: password123)")

	fournisseur := models.Fournisseur{
		UserID: supplierUser.ID, Prenom: supplierUser.Prenom, Nom: supplierUser.Nom,
		Email: supplierUser.Email, Telephone: supplierUser.Telephone,
	}
	if err := db.Create(&fournisseur).Error; err != nil {
		log.Fatalf("Failed to create supplier: %v", err)
	}

	categories := []models.Categorie{
		{Nom: "Informatique", Description: "Ordinateurs et périphériques"},
		{Nom: "Papeterie", Description: "Fournitures de bureau"},
		{Nom: "Mobilier", Description: "Bureaux, chaises et rangements"},
	}
	for i := range categories {
		if err := db.Create(&categories[i]).Error; err != nil {
			log.Fatalf("Failed to create category: %v", err)
		}
	}
	fmt.Printf("Created %d categories\n", len(categories))

	produits := []models.Produit{
		{Nom: "Ordinateur portable", Stock: 12, SeuilAlerte: 5, Prix: 450000,
			CategorieID: categories[0].ID, FournisseurID: &fournisseur.ID},
		{Nom: "Souris sans fil", Stock: 40, SeuilAlerte: 10, Prix: 7500,
			CategorieID: categories[0].ID, FournisseurID: &fournisseur.ID},
		{Nom: "Ramette papier A4", Stock: 3, SeuilAlerte: 8, Prix: 3500,
			CategorieID: categories[1].ID, FournisseurID: &fournisseur.ID},
		{Nom: "Chaise de bureau", Stock: 7, SeuilAlerte: 2, Prix: 65000,
			CategorieID: categories[2].ID, FournisseurID: &fournisseur.ID},
	}
	for i := range produits {
		if err := db.Create(&produits[i]).Error; err != nil {
			log.Fatalf("Failed to create product: %v", err)
		}
	}
	fmt.Printf("Created %d products\n", len(produits))

	commande := models.Commande{
		Date:          time.Now().AddDate(0, 0, -3),
		Total:         float64(5)*produits[2].Prix + float64(2)*produits[1].Prix,
		Statut:        models.CommandeEnAttente,
		UserID:        gestionnaire.ID,
		FournisseurID: fournisseur.ID,
	}
	if err := db.Create(&commande).Error; err != nil {
		log.Fatalf("Failed to create order: %v", err)
	}
	lignes := []models.LigneDeCommande{
		{CommandeID: commande.ID, ProduitID: produits[2].ID, Quantite: 5, Prix: produits[2].Prix},
		{CommandeID: commande.ID, ProduitID: produits[1].ID, Quantite: 2, Prix: produits[1].Prix},
	}
	for i := range lignes {
		if err := db.Create(&lignes[i]).Error; err != nil {
			log.Fatalf("Failed to create order line: %v", err)
		}
	}
	fmt.Println("Created 1 pending order with 2 lines")

	fmt.Println()
	fmt.Println("Seeding complete. Accounts:")
	fmt.Println("  admin@gestistock.test / password123")
	fmt.Println("  gestionnaire@gestistock.test / password123")
	fmt.Println("  fournisseur@gestistock.test / password123")
}
