package dto

import "encoding/json"

// OrderNotificationRequest is accepted by the order notification function in
// two forms: {order} broadcasts a new-order message to every registered
// device, {tokens,title,body,data} sends a custom message to the given tokens.
type OrderNotificationRequest struct {
	Order  *OrderSummary  `json:"order,omitempty"`
	Tokens []string       `json:"tokens,omitempty"`
	Title  string         `json:"title,omitempty"`
	Body   string         `json:"body,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

type OrderSummary struct {
	Operation          string `json:"operation"`
	AccountDescription string `json:"account_description"`
	SeedType           string `json:"seed_type"`
	Variety            string `json:"variety"`
}

type DispatchResponse struct {
	Success       bool            `json:"success"`
	RemindersSent *int            `json:"reminders_sent,omitempty"`
	Result        json.RawMessage `json:"result"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type FunctionErrorResponse struct {
	Error string `json:"error"`
}
