package dto

import "encoding/json"

// UpsertResponseRequestDTO is the body of POST /api/llm/responses.
type UpsertResponseRequestDTO struct {
	ID         string          `json:"id" label:"responseId" validate:"required"`
	ClerkID    string          `json:"clerkId" label:"clerkId" validate:"required"`
	Request    *string         `json:"request"`
	RequestURL string          `json:"requestUrl"`
	Response   json.RawMessage `json:"response"`
}
