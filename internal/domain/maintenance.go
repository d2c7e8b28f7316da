package domain

import "time"

// Urgency is a maintenance request priority tag
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether the urgency is one of the known levels
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Rank maps urgency to its ordering weight (low=1, medium=2, high=3)
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	}
	return 0
}

// RequestStatus is a maintenance request lifecycle state. Transitions are
// unconstrained in direction; closed is the archival state that partitions
// the open and closed admin views and blocks image appends.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusClosed     RequestStatus = "closed"
)

// OpenStatuses are the states shown in the admin "open" view
var OpenStatuses = []RequestStatus{StatusPending, StatusInProgress}

// Valid reports whether the status is one of the known states
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusClosed:
		return true
	}
	return false
}

// Category is a maintenance request category
type Category string

const (
	CategoryHVAC        Category = "hvac"
	CategoryKitchen     Category = "kitchen"
	CategoryWasherDryer Category = "washer-dryer"
	CategoryBathroom    Category = "bathroom"
	CategoryLivingRoom  Category = "living-room"
	CategoryGarage      Category = "garage"
	CategoryLawn        Category = "lawn"
	CategoryBedroom     Category = "bedroom"
	CategoryElectrical  Category = "electrical"
	CategoryPlumbing    Category = "plumbing"
	CategoryGeneral     Category = "general"
)

// Categories is the fixed category enumeration
var Categories = []Category{
	CategoryHVAC,
	CategoryKitchen,
	CategoryWasherDryer,
	CategoryBathroom,
	CategoryLivingRoom,
	CategoryGarage,
	CategoryLawn,
	CategoryBedroom,
	CategoryElectrical,
	CategoryPlumbing,
	CategoryGeneral,
}

// Valid reports whether the category belongs to the fixed enumeration
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// AdminNote is an append-only note left by an admin on a request
type AdminNote struct {
	ID        string    `json:"id"`
	Admin     string    `json:"admin"` // authoring admin's user ID
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// MaintenanceRequest is a tenant-submitted maintenance ticket
type MaintenanceRequest struct {
	ID          string
	UserID      string // owning tenant, immutable after creation
	Title       string
	Description string
	Urgency     Urgency
	Status      RequestStatus
	Category    Category
	Images      []string // URLs or storage paths, appended by the owner
	AdminNotes  []AdminNote

	// Owner expansion, populated by joined reads only
	OwnerName  string
	OwnerEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestFilter is a storage-layer predicate for maintenance request queries
type RequestFilter struct {
	UserID   string          // owner scope for tenant queries
	Statuses []RequestStatus // base view partition (open/closed)
	Status   RequestStatus   // exact match from query params
	Urgency  Urgency
	Category Category
}

// SortOrder is a sort specification on the creation timestamp
type SortOrder struct {
	Ascending bool
}

// PageRequest holds resolved pagination values
type PageRequest struct {
	Page  int
	Limit int
	Skip  int
}

// MaintenanceRepository defines data access for maintenance requests
type MaintenanceRepository interface {
	Create(req *MaintenanceRequest) error
	GetByID(id string) (*MaintenanceRequest, error)
	List(filter RequestFilter, sort SortOrder, page PageRequest) ([]*MaintenanceRequest, error)
	Count(filter RequestFilter) (int, error)
	Update(req *MaintenanceRequest) error
	AppendNote(id string, note AdminNote) error
	AppendImages(id string, images []string) error
}
