package models

import (
	"encoding/json"
	"time"
)

// Response is a captured model response owned by a User.
type Response struct {
	ID         string    `json:"_id"`
	ResponseID string    `json:"responseId"`
	UserID     string    `json:"user"`
	Request    *string   `json:"request"`
	RequestURL *string   `json:"requestUrl"`
	Payload    string    `json:"response"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ResponseInput carries the fields accepted by a response upsert.
type ResponseInput struct {
	ResponseID string
	ClerkID    string
	Request    *string
	RequestURL string
	Payload    json.RawMessage
}

// DecodedPayload returns the structured value the payload was encoded from.
func (r *Response) DecodedPayload() (any, error) {
	return DecodePayload(r.Payload)
}
