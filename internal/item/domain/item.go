package domain

import "time"

// ItemType classifies a captured item
type ItemType string

const (
	ItemTypeTask      ItemType = "task"
	ItemTypeEvent     ItemType = "event"
	ItemTypeIdea      ItemType = "idea"
	ItemTypeReference ItemType = "reference"
)

// ItemStatus represents the current state of an item
type ItemStatus string

const (
	StatusNotStarted ItemStatus = "not_started"
	StatusInProgress ItemStatus = "in_progress"
	StatusComplete   ItemStatus = "complete"
)

// Urgency is a coarse priority signal used for sorting and reminders
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Category is the top-level bucket assigned to an item
type Category string

const (
	CategoryCar        Category = "Car"
	CategoryPersonal   Category = "Personal"
	CategoryFamily     Category = "Family"
	CategoryFinance    Category = "Finance"
	CategoryHealth     Category = "Health"
	CategoryHome       Category = "Home"
	CategoryWork       Category = "Work"
	CategoryRecruiting Category = "Recruiting"
	CategoryTravel     Category = "Travel"
	CategoryIdeas      Category = "Ideas"
	CategoryReference  Category = "Reference"
)

// Subcategory refines idea items
type Subcategory string

const (
	SubcategoryBooks       Subcategory = "Books"
	SubcategoryMovies      Subcategory = "Movies"
	SubcategoryTV          Subcategory = "TV"
	SubcategoryRestaurants Subcategory = "Restaurants"
	SubcategoryArticles    Subcategory = "Articles"
	SubcategoryGifts       Subcategory = "Gifts"
	SubcategoryProducts    Subcategory = "Products"
	SubcategoryPlaces      Subcategory = "Places"
	SubcategoryActivities  Subcategory = "Activities"
	SubcategoryRandom      Subcategory = "Random"
)

// ItemTypes, Categories and Subcategories list the fixed enumerations in display order.
var (
	ItemTypes = []ItemType{ItemTypeTask, ItemTypeEvent, ItemTypeIdea, ItemTypeReference}

	Statuses = []ItemStatus{StatusNotStarted, StatusInProgress, StatusComplete}

	Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

	Categories = []Category{
		CategoryCar, CategoryPersonal, CategoryFamily, CategoryFinance, CategoryHealth,
		CategoryHome, CategoryWork, CategoryRecruiting, CategoryTravel, CategoryIdeas,
		CategoryReference,
	}

	Subcategories = []Subcategory{
		SubcategoryBooks, SubcategoryMovies, SubcategoryTV, SubcategoryRestaurants,
		SubcategoryArticles, SubcategoryGifts, SubcategoryProducts, SubcategoryPlaces,
		SubcategoryActivities, SubcategoryRandom,
	}
)

// Item is the single persisted unit of work or information.
// Empty strings stand in for null on optional enum and text columns.
type Item struct {
	ID              string      `json:"id" gorm:"primaryKey"`
	UserID          string      `json:"user_id" gorm:"index;not null"`
	Type            ItemType    `json:"type" gorm:"index;not null"`
	Title           string      `json:"title" gorm:"not null"`
	Description     string      `json:"description,omitempty" gorm:"type:text"`
	Category        Category    `json:"category,omitempty"`
	Subcategory     Subcategory `json:"subcategory,omitempty"`
	Status          ItemStatus  `json:"status" gorm:"index;default:not_started"`
	PreviousStatus  ItemStatus  `json:"-"`
	Urgency         Urgency     `json:"urgency,omitempty" gorm:"index"`
	DueDate         *time.Time  `json:"due_date,omitempty" gorm:"index"`
	PeopleMentioned []string    `json:"people_mentioned" gorm:"serializer:json;type:jsonb"`
	Notes           string      `json:"notes,omitempty" gorm:"type:text"`
	Links           []string    `json:"links" gorm:"serializer:json;type:jsonb"`
	Location        string      `json:"location,omitempty"`
	CalendarEventID string      `json:"calendar_event_id,omitempty"`
	ReminderAt      *time.Time  `json:"reminder_at,omitempty"`
	ReminderSent    bool        `json:"reminder_sent" gorm:"default:false"`
	CreatedAt       time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time   `json:"updated_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

// TableName pins the GORM table name
func (Item) TableName() string {
	return "items"
}

// IsComplete reports whether the item has been completed
func (i *Item) IsComplete() bool {
	return i.Status == StatusComplete
}

// HasDueDate reports whether a due date is set
func (i *Item) HasDueDate() bool {
	return i.DueDate != nil
}

// SyncsToCalendar reports whether the item is mirrored to the external calendar
func (i *Item) SyncsToCalendar() bool {
	return i.Type == ItemTypeEvent && i.DueDate != nil
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (i *Item) Clone() *Item {
	c := *i
	if i.DueDate != nil {
		t := *i.DueDate
		c.DueDate = &t
	}
	if i.ReminderAt != nil {
		t := *i.ReminderAt
		c.ReminderAt = &t
	}
	if i.CompletedAt != nil {
		t := *i.CompletedAt
		c.CompletedAt = &t
	}
	c.PeopleMentioned = append([]string(nil), i.PeopleMentioned...)
	c.Links = append([]string(nil), i.Links...)
	return &c
}

// UrgencyRank orders urgencies for sorting: high=0, medium=1, low=2, none=3
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyLow:
		return 2
	default:
		return 3
	}
}
