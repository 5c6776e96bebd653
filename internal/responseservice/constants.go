package responseservice

const (
	ErrResponseIDRequired     = "responseId is required"
	ErrClerkIDRequired        = "clerkId is required"
	ErrUserNotFoundInDatabase = "User not found in database"
	ErrUserNotFound           = "User not found"
	ErrInvalidPayload         = "response must be valid JSON"
	ErrRetrievingUser         = "error retrieving user"
	ErrFailedToSaveResponse   = "failed to save response"
	ErrFailedToListResponses  = "failed to list responses"
)
