package listing

import (
	"net/url"
	"sort"

	"github.com/yourorg/tenantportal/internal/domain"
)

// BuildSort produces a sort specification on the creation timestamp.
// "asc" sorts oldest first; any other value, including absent, sorts
// newest first.
func BuildSort(query url.Values) domain.SortOrder {
	return domain.SortOrder{Ascending: query.Get("sort") == "asc"}
}

// SortPageByUrgency re-sorts an already-fetched page by urgency rank.
// This runs after store-level sorting and pagination, so it orders only
// the current page's members, not the full result set. That page-local
// behavior is inherited from the portal's first implementation and kept
// as-is; callers paging through results get urgency order within each
// time-sorted page only.
func SortPageByUrgency(requests []*domain.MaintenanceRequest, direction string) {
	sort.SliceStable(requests, func(i, j int) bool {
		if direction == "asc" {
			return requests[i].Urgency.Rank() < requests[j].Urgency.Rank()
		}
		return requests[i].Urgency.Rank() > requests[j].Urgency.Rank()
	})
}
