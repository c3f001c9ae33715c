package dto

import "time"

type RegisterPushTokenRequest struct {
	Token      string `json:"token" validate:"required,max=255"`
	DeviceInfo string `json:"deviceInfo" validate:"max=255"`
}

type PushToken struct {
	UserID     string    `json:"user_id"`
	Token      string    `json:"token"`
	DeviceInfo string    `json:"device_info"`
	UpdatedAt  time.Time `json:"updated_at"`
}
