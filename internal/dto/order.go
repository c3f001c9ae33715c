package dto

import (
	"time"

	"seedorders/internal/domain"
)

// Order is the JSON shape of an orders row, optionally with its items.
type Order struct {
	ID                 string      `json:"id"`
	Operation          string      `json:"operation"`
	AccountDescription string      `json:"account_description"`
	SeedType           string      `json:"seed_type"`
	Variety            string      `json:"variety"`
	SeedTreatment      *string     `json:"seed_treatment"`
	Notes              string      `json:"notes"`
	Status             string      `json:"status"`
	CreatedBy          string      `json:"created_by"`
	ViewedBy           *string     `json:"viewed_by"`
	ViewNotified       bool        `json:"view_notified"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	OrderItems         []OrderItem `json:"order_items,omitempty"`
}

type OrderItem struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	Variety       string    `json:"variety"`
	SeedTreatment *string   `json:"seed_treatment"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

func OrderFromDomain(o domain.Order) Order {
	out := Order{
		ID:                 o.ID,
		Operation:          o.Operation,
		AccountDescription: o.AccountDescription,
		SeedType:           o.SeedType,
		Variety:            o.Variety,
		SeedTreatment:      o.SeedTreatment,
		Notes:              o.Notes,
		Status:             string(o.Status),
		CreatedBy:          o.CreatedBy,
		ViewedBy:           o.ViewedBy,
		ViewNotified:       o.ViewNotified,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if len(o.Items) > 0 {
		out.OrderItems = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			out.OrderItems[i] = OrderItem{
				ID:            item.ID,
				OrderID:       item.OrderID,
				Variety:       item.Variety,
				SeedTreatment: item.SeedTreatment,
				Quantity:      item.Quantity,
				CreatedAt:     item.CreatedAt,
			}
		}
	}
	return out
}

func OrdersFromDomain(orders []domain.Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = OrderFromDomain(o)
	}
	return out
}

func (o Order) ToDomain() domain.Order {
	out := domain.Order{
		ID:                 o.ID,
		Operation:          o.Operation,
		AccountDescription: o.AccountDescription,
		SeedType:           o.SeedType,
		Variety:            o.Variety,
		SeedTreatment:      o.SeedTreatment,
		Notes:              o.Notes,
		Status:             domain.OrderStatus(o.Status),
		CreatedBy:          o.CreatedBy,
		ViewedBy:           o.ViewedBy,
		ViewNotified:       o.ViewNotified,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, item := range o.OrderItems {
		out.Items = append(out.Items, domain.OrderItem{
			ID:            item.ID,
			OrderID:       item.OrderID,
			Variety:       item.Variety,
			SeedTreatment: item.SeedTreatment,
			Quantity:      item.Quantity,
			CreatedAt:     item.CreatedAt,
		})
	}
	return out
}

type OrderStats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

func StatsFromDomain(s domain.OrderStats) OrderStats {
	return OrderStats{
		Pending:    s.Pending,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		Total:      s.Total,
	}
}
