package domain

import "time"

// AnnouncementCategory classifies an announcement
type AnnouncementCategory string

const (
	AnnouncementGeneral     AnnouncementCategory = "general"
	AnnouncementMaintenance AnnouncementCategory = "maintenance"
	AnnouncementBilling     AnnouncementCategory = "billing"
	AnnouncementUrgent      AnnouncementCategory = "urgent"
)

// Valid reports whether the category is one of the known values
func (c AnnouncementCategory) Valid() bool {
	switch c {
	case AnnouncementGeneral, AnnouncementMaintenance, AnnouncementBilling, AnnouncementUrgent:
		return true
	}
	return false
}

// ReadReceipt records a user's first read of an announcement.
// At most one receipt exists per (announcement, user) pair.
type ReadReceipt struct {
	User   string    `json:"user"` // reader's user ID
	ReadAt time.Time `json:"readAt"`
}

// Announcement is a board post. Unpublished announcements are visible
// to admins only.
type Announcement struct {
	ID        string
	Title     string
	Message   string
	Category  AnnouncementCategory
	Published bool
	ReadBy    []ReadReceipt
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsReadBy reports whether a read receipt exists for the given user
func (a *Announcement) IsReadBy(userID string) bool {
	for _, r := range a.ReadBy {
		if r.User == userID {
			return true
		}
	}
	return false
}

// AnnouncementFilter is a storage-layer predicate for announcement queries
type AnnouncementFilter struct {
	Category      AnnouncementCategory
	PublishedOnly bool
}

// AnnouncementRepository defines data access for announcements
type AnnouncementRepository interface {
	Create(a *Announcement) error
	GetByID(id string) (*Announcement, error)
	List(filter AnnouncementFilter, page PageRequest) ([]*Announcement, error)
	Count(filter AnnouncementFilter) (int, error)
	Update(a *Announcement) error
	Delete(id string) error

	// MarkRead appends a receipt unless one already exists for the user.
	// Returns true if a receipt was appended.
	MarkRead(id, userID string, at time.Time) (bool, error)

	// MarkAllRead appends a receipt to every published announcement
	// lacking one for the user, in a single bulk update. Returns the
	// number of announcements updated.
	MarkAllRead(userID string, at time.Time) (int, error)
}
