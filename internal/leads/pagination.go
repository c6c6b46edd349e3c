package leads

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/hugh/lead-hunter/internal/database/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*MaxLimit within int.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// Page is a clamped page request.
type Page struct {
	Number int
	Limit  int
}

// ParsePage reads page and limit (or pageSize). A non-numeric or sub-1 page
// becomes 1 and a larger one is capped at MaxPage. A missing, non-numeric or
// zero limit becomes DefaultLimit; any other value is clamped to [1, MaxLimit].
func ParsePage(values url.Values) Page {
	page, ok := parseInt(values.Get("page"))
	if !ok || page < 1 {
		page = 1
	}

	rawLimit := values.Get("limit")
	if rawLimit == "" {
		rawLimit = values.Get("pageSize")
	}
	limit, ok := parseInt(rawLimit)
	if !ok || limit == 0 {
		limit = DefaultLimit
	}

	return Page{Number: clamp(page, 1, MaxPage), Limit: clamp(limit, 1, MaxLimit)}
}

// Offset is the number of rows before the page, saturating at math.MaxInt.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// parseInt accepts any base-10 integer; values outside int saturate at its bounds.
func parseInt(raw string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}

// Result is the listing envelope returned to clients.
type Result struct {
	Data       []models.Lead `json:"data"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

func NewResult(rows []models.Lead, page Page, total int64) Result {
	if rows == nil {
		rows = []models.Lead{}
	}
	return Result{
		Data:       rows,
		Page:       page.Number,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: TotalPages(total, page.Limit),
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) > 0 {
		pages++
	}
	return int(pages)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
