// Package pagination reproduces the page envelope the frontends already
// consume: 20 rows per page with current_page/last_page/total metadata.
package pagination

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"
)

// PerPage is the fixed page size used across all listings
const PerPage = 20

// Page is the JSON envelope for one page of results
type Page struct {
	Data        interface{} `json:"data"`
	CurrentPage int         `json:"current_page"`
	PerPage     int         `json:"per_page"`
	Total       int64       `json:"total"`
	LastPage    int         `json:"last_page"`
}

// PageParam extracts the requested page (1-based) from the query string
func PageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate counts the query, fetches one page into dest and wraps it in the
// envelope. The passed query must carry all filters but no limit/offset.
func Paginate(query *gorm.DB, page int, dest interface{}) (*Page, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	if err := query.Limit(PerPage).Offset((page - 1) * PerPage).Find(dest).Error; err != nil {
		return nil, err
	}

	lastPage := int((total + PerPage - 1) / PerPage)
	if lastPage < 1 {
		lastPage = 1
	}

	return &Page{
		Data:        dest,
		CurrentPage: page,
		PerPage:     PerPage,
		Total:       total,
		LastPage:    lastPage,
	}, nil
}
