package domain

import "time"

// PushToken is a device address registered by a user. Token is unique across
// all users; re-registering the same token moves it to the caller.
type PushToken struct {
	UserID     string
	Token      string
	DeviceInfo string
	UpdatedAt  time.Time
}

func TokenValues(tokens []PushToken) []string {
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}
	return values
}
