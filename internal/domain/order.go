package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted:
		return true
	}
	return false
}

// Label renders the status the way the printed order sheet shows it.
func (s OrderStatus) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

type Order struct {
	ID                 string
	Operation          string
	AccountDescription string
	SeedType           string
	Variety            string
	SeedTreatment      *string
	Notes              string
	Status             OrderStatus
	CreatedBy          string
	ViewedBy           *string
	ViewNotified       bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Items              []OrderItem
}

func (o Order) IsSoybeans() bool {
	return IsSoybeans(o.SeedType)
}

// NeedsViewNotification reports whether opening the order as viewerID should
// tell its creator that warehouse staff picked it up.
func (o Order) NeedsViewNotification(viewerID string) bool {
	return !o.ViewNotified && o.CreatedBy != "" && o.CreatedBy != viewerID
}

// IsSoybeans reports whether a seed type denotes soybeans. Only soybean
// orders carry seed treatments.
func IsSoybeans(seedType string) bool {
	return strings.Contains(strings.ToLower(seedType), "soybean")
}

type OrderStats struct {
	Pending    int
	InProgress int
	Completed  int
	Total      int
}

func CountByStatus(orders []Order) OrderStats {
	stats := OrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case OrderStatusPending:
			stats.Pending++
		case OrderStatusInProgress:
			stats.InProgress++
		case OrderStatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

func FilterByStatus(orders []Order, status OrderStatus) []Order {
	filtered := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
