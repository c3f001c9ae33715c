package dto

type CreateOrderRequest struct {
	Operation          string                   `json:"operation"`
	AccountDescription string                   `json:"account_description"`
	SeedType           string                   `json:"seed_type"`
	Notes              string                   `json:"notes"`
	Items              []CreateOrderItemRequest `json:"items"`
}

type CreateOrderItemRequest struct {
	Variety       string `json:"variety"`
	SeedTreatment string `json:"seed_treatment"`
	Quantity      int    `json:"quantity"`
}

type CreateOrderResponse struct {
	TraceID           string `json:"traceId"`
	Order             Order  `json:"order"`
	Notification      string `json:"notification"`
	NotificationError string `json:"notificationError,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type DeleteOrdersRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type DeleteOrdersResponse struct {
	Deleted int `json:"deleted"`
}

type ErrorResponse struct {
	TraceID string `json:"traceId,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
