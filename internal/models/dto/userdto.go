package dto

// UpsertUserRequestDTO is the body of POST /api/users. The id is the
// identity provider subject.
type UpsertUserRequestDTO struct {
	ID        string `json:"id" label:"clerkId" validate:"required"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
