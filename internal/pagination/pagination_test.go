package pagination

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gestistock/gestistock/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Categorie{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 0; i < 45; i++ {
		if err := db.Create(&models.Categorie{Nom: fmt.Sprintf("Categorie %02d", i)}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

func TestPageParam(t *testing.T) {
	cases := map[string]int{
		"/categories":          1,
		"/categories?page=0":   1,
		"/categories?page=3":   3,
		"/categories?page=abc": 1,
	}
	for url, want := range cases {
		req := httptest.NewRequest("GET", url, nil)
		if got := PageParam(req); got != want {
			t.Errorf("PageParam(%s) = %d, want %d", url, got, want)
		}
	}
}

func TestPaginateEnvelope(t *testing.T) {
	db := setup(t)

	var categories []models.Categorie
	page, err := Paginate(db.Model(&models.Categorie{}).Order("nom ASC"), 1, &categories)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if page.Total != 45 {
		t.Errorf("total = %d, want 45", page.Total)
	}
	if page.LastPage != 3 {
		t.Errorf("last_page = %d, want 3", page.LastPage)
	}
	if page.CurrentPage != 1 || page.PerPage != PerPage {
		t.Errorf("envelope = page %d size %d, want page 1 size %d", page.CurrentPage, page.PerPage, PerPage)
	}
	if len(categories) != PerPage {
		t.Errorf("rows = %d, want %d", len(categories), PerPage)
	}

	// Last page carries the remainder
	categories = nil
	page, err = Paginate(db.Model(&models.Categorie{}).Order("nom ASC"), 3, &categories)
	if err != nil {
		t.Fatalf("paginate page 3: %v", err)
	}
	if len(categories) != 5 {
		t.Errorf("rows on last page = %d, want 5", len(categories))
	}

	// The count must not eat the filter of the page query
	categories = nil
	page, err = Paginate(db.Model(&models.Categorie{}).Where("nom LIKE ?", "%0%"), 1, &categories)
	if err != nil {
		t.Fatalf("paginate filtered: %v", err)
	}
	if page.Total == 45 {
		t.Errorf("filtered total should be below 45, got %d", page.Total)
	}
}
