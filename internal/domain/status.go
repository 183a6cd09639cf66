package domain

import "strings"

type StatusID int

const (
	StatusOrdered        StatusID = 1
	StatusShipped        StatusID = 2
	StatusOutForDelivery StatusID = 3
	StatusDelivered      StatusID = 4
	StatusCancelled      StatusID = 5
	StatusComplaintOpen  StatusID = 6
	StatusRefunded       StatusID = 7
	StatusReturned       StatusID = 8
)

// Canonical lowercase status names. Transition rules and aggregation compare
// against these, never against ids.
const (
	StatusNameOrdered        = "ordered"
	StatusNameShipped        = "shipped"
	StatusNameOutForDelivery = "out for delivery"
	StatusNameDelivered      = "delivered"
	StatusNameCancelled      = "cancelled"
	StatusNameComplaintOpen  = "complaint open"
	StatusNameRefunded       = "refunded"
	StatusNameReturned       = "returned"
)

type Status struct {
	ID    StatusID `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
}

// NormalizeStatusName lowercases and trims a display name so "Out for Delivery"
// and "out for delivery" compare equal.
func NormalizeStatusName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var defaultStatuses = []Status{
	{ID: StatusOrdered, Name: "Ordered", Color: "#3b82f6"},
	{ID: StatusShipped, Name: "Shipped", Color: "#8b5cf6"},
	{ID: StatusOutForDelivery, Name: "Out for Delivery", Color: "#f59e0b"},
	{ID: StatusDelivered, Name: "Delivered", Color: "#44ae7c"},
	{ID: StatusCancelled, Name: "Cancelled", Color: "#ef4444"},
	{ID: StatusComplaintOpen, Name: "Complaint Open", Color: "#f97316"},
	{ID: StatusRefunded, Name: "Refunded", Color: "#6b7280"},
	{ID: StatusReturned, Name: "Returned", Color: "#0ea5e9"},
}

// DefaultStatuses returns the seeded status set in id order. It mirrors the
// rows inserted by the initial migration.
func DefaultStatuses() []Status {
	out := make([]Status, len(defaultStatuses))
	copy(out, defaultStatuses)
	return out
}

// Catalog indexes a status set by id and by normalized name.
type Catalog struct {
	statuses []Status
	byID     map[StatusID]Status
	byName   map[string]Status
}

func NewCatalog(statuses []Status) *Catalog {
	c := &Catalog{
		statuses: make([]Status, len(statuses)),
		byID:     make(map[StatusID]Status, len(statuses)),
		byName:   make(map[string]Status, len(statuses)),
	}
	copy(c.statuses, statuses)
	for _, s := range statuses {
		c.byID[s.ID] = s
		c.byName[NormalizeStatusName(s.Name)] = s
	}
	return c
}

func (c *Catalog) List() []Status {
	out := make([]Status, len(c.statuses))
	copy(out, c.statuses)
	return out
}

func (c *Catalog) ByID(id StatusID) (Status, bool) {
	s, ok := c.byID[id]
	return s, ok
}

func (c *Catalog) ByName(name string) (Status, bool) {
	s, ok := c.byName[NormalizeStatusName(name)]
	return s, ok
}

// Name returns the normalized name for id, or "" when id is unknown.
func (c *Catalog) Name(id StatusID) string {
	if s, ok := c.byID[id]; ok {
		return NormalizeStatusName(s.Name)
	}
	return ""
}
