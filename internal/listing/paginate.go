package listing

import (
	"net/url"
	"strconv"

	"github.com/yourorg/tenantportal/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Paginate resolves page and limit query parameters into offset/limit
// values, defaulting page=1 and limit=10 whenever a parameter is absent
// or unparsable. No upper bound is enforced on limit.
func Paginate(query url.Values) domain.PageRequest {
	page := parsePositive(query.Get("page"), defaultPage)
	limit := parsePositive(query.Get("limit"), defaultLimit)

	return domain.PageRequest{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

// TotalPages computes ceil(total / limit)
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
