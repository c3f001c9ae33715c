package domain

import "time"

type OrderItem struct {
	ID            string
	OrderID       string
	Variety       string
	SeedTreatment *string
	Quantity      int
	CreatedAt     time.Time
}
