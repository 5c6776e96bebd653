package userservice

const (
	// Error messages for user service operations
	ErrClerkIDRequired    = "clerkId is required"
	ErrFailedToUpsertUser = "failed to upsert user"
	ErrRetrievingUser     = "error retrieving user"
)
