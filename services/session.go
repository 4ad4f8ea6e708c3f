package services

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// AuthError reports a malformed identity payload. Parse failures are
// surfaced to the caller instead of being swallowed.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// TelegramUser is the identity claim inside the mini-app's initData.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func (u *TelegramUser) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("player-%d", u.ID)
}

// ParseInitData extracts the identity claim from a Telegram WebApp
// initData payload: a urlencoded query whose "user" member is a JSON
// object. Signature validation belongs to the bot side; here the
// payload only needs to be well-formed and carry a positive user id.
func ParseInitData(raw string) (*TelegramUser, error) {
	if raw == "" {
		return nil, &AuthError{Reason: "empty init data"}
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, &AuthError{Reason: "init data is not a query string"}
	}
	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, &AuthError{Reason: "init data has no user field"}
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, &AuthError{Reason: "user field is not valid JSON"}
	}
	if user.ID <= 0 {
		return nil, &AuthError{Reason: "user id missing"}
	}
	return &user, nil
}
