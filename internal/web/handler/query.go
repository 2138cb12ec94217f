package handler

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Filter operators accepted in list queries.
const (
	// OprEqual matches a column against a value.
	OprEqual = "eq"
	// OprRelManyToMany matches rows related to an id through a
	// many-to-many association.
	OprRelManyToMany = "rel_m_m"
)

// Filter is one condition of a list query.
type Filter struct {
	Col   string      `json:"col"`
	Opr   string      `json:"opr"`
	Value interface{} `json:"value"`
}

// ListQuery carries the ordering, pagination and filter settings of a list
// request, parsed from the JSON "q" query parameter.
type ListQuery struct {
	OrderColumn    string   `json:"order_column"`
	OrderDirection string   `json:"order_direction"`
	Page           int      `json:"page"`
	PageSize       int      `json:"page_size"`
	Filters        []Filter `json:"filters"`
}

// ParseListQuery reads the "q" query parameter. An absent parameter yields
// the defaults; a malformed one yields an error.
func ParseListQuery(c *fiber.Ctx) (*ListQuery, error) {
	q := &ListQuery{PageSize: DefaultPageSize}

	raw := c.Query("q")
	if raw == "" {
		return q, nil
	}

	if err := json.Unmarshal([]byte(raw), q); err != nil {
		return nil, fmt.Errorf("invalid list query: %w", err)
	}

	if q.Page < 0 {
		q.Page = 0
	}

	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}

	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	return q, nil
}

// Order applies the requested ordering when the column is in the allowed
// set, falling back to the given default otherwise.
func (q *ListQuery) Order(tx *gorm.DB, allowed map[string]bool, fallback string) *gorm.DB {
	column := q.OrderColumn
	if column == "" || !allowed[column] {
		column = fallback
	}

	direction := "asc"
	if q.OrderDirection == "desc" {
		direction = "desc"
	}

	return tx.Order(column + " " + direction)
}

// Paginate applies the requested page window.
func (q *ListQuery) Paginate(tx *gorm.DB) *gorm.DB {
	return tx.Limit(q.PageSize).Offset(q.Page * q.PageSize)
}

// EqualFilters applies the eq filters whose column is in the allowed set.
// Filters on unknown columns or with unknown operators are ignored.
func (q *ListQuery) EqualFilters(tx *gorm.DB, allowed map[string]bool) *gorm.DB {
	for _, f := range q.Filters {
		if f.Opr != OprEqual || !allowed[f.Col] {
			continue
		}

		tx = tx.Where(f.Col+" = ?", f.Value)
	}

	return tx
}
