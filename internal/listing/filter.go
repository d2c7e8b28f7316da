// Package listing translates list-query parameters into storage-layer
// predicates, sort specifications and pagination values, and projects
// stored records into their wire shapes.
package listing

import (
	"net/url"

	"github.com/yourorg/tenantportal/internal/domain"
)

// BuildFilter composes a storage predicate from raw query parameters on
// top of a base predicate. Status and urgency are exact matches taken as
// given; category is accepted only if it belongs to the fixed category
// enumeration and silently ignored otherwise. With no recognized
// parameters the result equals the base predicate.
func BuildFilter(query url.Values, base domain.RequestFilter) domain.RequestFilter {
	filter := base

	if v := query.Get("status"); v != "" {
		filter.Status = domain.RequestStatus(v)
	}

	if v := query.Get("urgency"); v != "" {
		filter.Urgency = domain.Urgency(v)
	}

	if v := query.Get("category"); v != "" {
		if c := domain.Category(v); c.Valid() {
			filter.Category = c
		}
	}

	return filter
}
