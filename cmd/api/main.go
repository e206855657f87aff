package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gestistock/gestistock/internal/config"
	"github.com/gestistock/gestistock/internal/database"
	"github.com/gestistock/gestistock/internal/handlers"
	"github.com/gestistock/gestistock/internal/models"
	"github.com/gestistock/gestistock/internal/notify"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// db.Close() is called in the shutdown handler below

	// 3. Synchronize schema
	log.Println("Synchronizing database schema...")
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
		log.Printf("Migration warning: %v", err)
	} else {
		log.Println("Schema synchronized")
	}

	// 4. Start the notification hub
	hub := notify.NewHub()
	go hub.Run()

	// 5. Set up HTTP router
	router := handlers.NewRouter(db.DB, cfg, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("Server starting on port %s (env: %s)", cfg.Port, cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
}
