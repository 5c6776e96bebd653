package routes

var DurationSecondsBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

const (
	// API route constants
	UsersRouteAPI     = "/api/users"
	ResponsesRouteAPI = "/api/llm/responses"
	HistoryRouteAPI   = "/api/llm/history/:clerkId"
	HealthRouteAPI    = "/health"
	MetricsRouteAPI   = "/metrics"

	ClerkIDParam = "clerkId"

	// health statuses
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"

	// Error messages
	ErrInvalidRequestBody  = "invalid request body"
	ErrRequiredFieldFormat = "%s is required"
	ErrInvalidFieldFormat  = "%s is invalid"
	ErrStorageUnavailable  = "storage unavailable"

	// metrics constants
	UserUpsertRequestsTotal       = "user_upsert_requests_total"
	UserUpsertRequestsTotalHelp   = "Total number of user upsert requests received"
	UserUpsertSuccessTotal        = "user_upsert_success_total"
	UserUpsertSuccessTotalHelp    = "Total number of successful user upserts"
	UserUpsertErrorsTotal         = "user_upsert_errors_total"
	UserUpsertErrorsTotalHelp     = "Total number of failed user upserts"
	UserUpsertDurationSeconds     = "user_upsert_duration_seconds"
	UserUpsertDurationSecondsHelp = "Duration of user upsert requests in seconds"

	ResponseUpsertRequestsTotal       = "response_upsert_requests_total"
	ResponseUpsertRequestsTotalHelp   = "Total number of response upsert requests received"
	ResponseUpsertSuccessTotal        = "response_upsert_success_total"
	ResponseUpsertSuccessTotalHelp    = "Total number of successful response upserts"
	ResponseUpsertErrorsTotal         = "response_upsert_errors_total"
	ResponseUpsertErrorsTotalHelp     = "Total number of failed response upserts"
	ResponseUpsertDurationSeconds     = "response_upsert_duration_seconds"
	ResponseUpsertDurationSecondsHelp = "Duration of response upsert requests in seconds"

	HistoryRequestsTotal       = "history_requests_total"
	HistoryRequestsTotalHelp   = "Total number of history requests received"
	HistorySuccessTotal        = "history_success_total"
	HistorySuccessTotalHelp    = "Total number of successful history requests"
	HistoryErrorsTotal         = "history_errors_total"
	HistoryErrorsTotalHelp     = "Total number of failed history requests"
	HistoryDurationSeconds     = "history_duration_seconds"
	HistoryDurationSecondsHelp = "Duration of history requests in seconds"

	ErrorsByKindTotal     = "errors_by_kind_total"
	ErrorsByKindTotalHelp = "Total number of errors returned to clients, by error kind"
	StorageUp             = "storage_up"
	StorageUpHelp         = "Whether the last storage health check succeeded (1) or not (0)"
)
