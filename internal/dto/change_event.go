package dto

import "seedorders/internal/domain"

// ChangeEvent is the realtime wire message. New and Old carry only
// top-level order columns; clients refetch to get items.
type ChangeEvent struct {
	Type  string `json:"eventType"`
	Table string `json:"table"`
	New   *Order `json:"new,omitempty"`
	Old   *Order `json:"old,omitempty"`
}

func ChangeEventFromDomain(ev domain.ChangeEvent) ChangeEvent {
	out := ChangeEvent{Type: string(ev.Type), Table: ev.Table}
	if ev.New != nil {
		o := OrderFromDomain(*ev.New)
		o.OrderItems = nil
		out.New = &o
	}
	if ev.Old != nil {
		o := OrderFromDomain(*ev.Old)
		out.Old = &o
	}
	return out
}

func (e ChangeEvent) ToDomain() domain.ChangeEvent {
	out := domain.ChangeEvent{Type: domain.ChangeType(e.Type), Table: e.Table}
	if e.New != nil {
		o := e.New.ToDomain()
		out.New = &o
	}
	if e.Old != nil {
		o := e.Old.ToDomain()
		out.Old = &o
	}
	return out
}
