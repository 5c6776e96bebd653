package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/haguru/llmvault/internal/apperrors"
	"github.com/haguru/llmvault/internal/interfaces"
	"github.com/haguru/llmvault/internal/models"
	"github.com/haguru/llmvault/internal/models/dto"

	"github.com/gin-gonic/gin"
	structValidator "github.com/go-playground/validator/v10"
)

type Route struct {
	Metrics         interfaces.Metrics
	UserService     interfaces.UserService
	ResponseService interfaces.ResponseService
	DBClient        interfaces.DBClient
	Logger          interfaces.Logger
	ServiceName     string
	validator       *structValidator.Validate
}

// NewRoute creates a new Route instance.
func NewRoute(metrics interfaces.Metrics, userService interfaces.UserService, responseService interfaces.ResponseService,
	dbClient interfaces.DBClient, logger interfaces.Logger, serviceName string,
) *Route {
	return &Route{
		Metrics:         metrics,
		UserService:     userService,
		ResponseService: responseService,
		DBClient:        dbClient,
		Logger:          logger,
		ServiceName:     serviceName,
		validator:       NewValidator(),
	}
}

// NewValidator returns a validator that reports fields by their `label` tag,
// falling back to the json name.
func NewValidator() *structValidator.Validate {
	v := structValidator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Tag.Get("json")
	})
	return v
}

// RegisterMetrics registers every metric the handlers report.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounter(UserUpsertRequestsTotal, UserUpsertRequestsTotalHelp)
	m.RegisterCounter(UserUpsertSuccessTotal, UserUpsertSuccessTotalHelp)
	m.RegisterCounter(UserUpsertErrorsTotal, UserUpsertErrorsTotalHelp)
	m.RegisterHistogram(UserUpsertDurationSeconds, UserUpsertDurationSecondsHelp, DurationSecondsBuckets)

	m.RegisterCounter(ResponseUpsertRequestsTotal, ResponseUpsertRequestsTotalHelp)
	m.RegisterCounter(ResponseUpsertSuccessTotal, ResponseUpsertSuccessTotalHelp)
	m.RegisterCounter(ResponseUpsertErrorsTotal, ResponseUpsertErrorsTotalHelp)
	m.RegisterHistogram(ResponseUpsertDurationSeconds, ResponseUpsertDurationSecondsHelp, DurationSecondsBuckets)

	m.RegisterCounter(HistoryRequestsTotal, HistoryRequestsTotalHelp)
	m.RegisterCounter(HistorySuccessTotal, HistorySuccessTotalHelp)
	m.RegisterCounter(HistoryErrorsTotal, HistoryErrorsTotalHelp)
	m.RegisterHistogram(HistoryDurationSeconds, HistoryDurationSecondsHelp, DurationSecondsBuckets)

	m.RegisterCounterVec(ErrorsByKindTotal, ErrorsByKindTotalHelp, []string{"kind"})
	m.RegisterGauge(StorageUp, StorageUpHelp)
}

// UpsertUser handles POST /api/users.
func (r *Route) UpsertUser(c *gin.Context) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(UserUpsertRequestsTotal)
	}
	startTime := time.Now()

	request := &dto.UpsertUserRequestDTO{}
	if err := r.bind(c, request); err != nil {
		r.errorResponse(c, err, UserUpsertErrorsTotal)
		return
	}

	user, err := r.UserService.UpsertUser(c.Request.Context(), models.UserInput{
		ClerkID:   request.ID,
		Email:     request.Email,
		FirstName: request.FirstName,
		LastName:  request.LastName,
	})
	if err != nil {
		r.errorResponse(c, err, UserUpsertErrorsTotal)
		return
	}

	if r.Metrics != nil {
		r.Metrics.IncCounter(UserUpsertSuccessTotal)
		r.Metrics.ObserveHistogram(UserUpsertDurationSeconds, time.Since(startTime).Seconds())
	}
	c.JSON(http.StatusOK, user)
}

// UpsertResponse handles POST /api/llm/responses.
func (r *Route) UpsertResponse(c *gin.Context) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(ResponseUpsertRequestsTotal)
	}
	startTime := time.Now()

	request := &dto.UpsertResponseRequestDTO{}
	if err := r.bind(c, request); err != nil {
		r.errorResponse(c, err, ResponseUpsertErrorsTotal)
		return
	}

	response, err := r.ResponseService.UpsertResponse(c.Request.Context(), models.ResponseInput{
		ResponseID: request.ID,
		ClerkID:    request.ClerkID,
		Request:    request.Request,
		RequestURL: request.RequestURL,
		Payload:    request.Response,
	})
	if err != nil {
		r.errorResponse(c, err, ResponseUpsertErrorsTotal)
		return
	}

	if r.Metrics != nil {
		r.Metrics.IncCounter(ResponseUpsertSuccessTotal)
		r.Metrics.ObserveHistogram(ResponseUpsertDurationSeconds, time.Since(startTime).Seconds())
	}
	c.JSON(http.StatusOK, response)
}

// History handles GET /api/llm/history/:clerkId.
func (r *Route) History(c *gin.Context) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(HistoryRequestsTotal)
	}
	startTime := time.Now()

	responses, err := r.ResponseService.History(c.Request.Context(), c.Param(ClerkIDParam))
	if err != nil {
		r.errorResponse(c, err, HistoryErrorsTotal)
		return
	}

	if r.Metrics != nil {
		r.Metrics.IncCounter(HistorySuccessTotal)
		r.Metrics.ObserveHistogram(HistoryDurationSeconds, time.Since(startTime).Seconds())
	}
	c.JSON(http.StatusOK, responses)
}

// Health pings the storage backend.
func (r *Route) Health(c *gin.Context) {
	if err := r.DBClient.Ping(c.Request.Context()); err != nil {
		r.Logger.Error(ErrStorageUnavailable, "error", err)
		if r.Metrics != nil {
			r.Metrics.SetGauge(StorageUp, 0)
		}
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponseDTO{Status: StatusUnavailable, Service: r.ServiceName})
		return
	}

	if r.Metrics != nil {
		r.Metrics.SetGauge(StorageUp, 1)
	}
	c.JSON(http.StatusOK, dto.HealthResponseDTO{Status: StatusOK, Service: r.ServiceName})
}

// bind decodes the JSON body into request and checks its required fields.
// An empty body decodes as an empty object.
func (r *Route) bind(c *gin.Context, request interface{}) error {
	if err := c.ShouldBindJSON(request); err != nil && !errors.Is(err, io.EOF) {
		r.Logger.Warn(ErrInvalidRequestBody, "path", c.FullPath(), "error", err)
		return apperrors.Validation(ErrInvalidRequestBody)
	}

	if err := r.validator.Struct(request); err != nil {
		var validationErrors structValidator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return apperrors.Validation(validationMessage(validationErrors[0]))
		}
		return apperrors.Validation(err.Error())
	}
	return nil
}

func validationMessage(fe structValidator.FieldError) string {
	if fe.Tag() == "required" {
		return fmt.Sprintf(ErrRequiredFieldFormat, fe.Field())
	}
	return fmt.Sprintf(ErrInvalidFieldFormat, fe.Field())
}

func (r *Route) errorResponse(c *gin.Context, err error, errorsMetric string) {
	status := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)

	if status >= http.StatusInternalServerError {
		r.Logger.Error("Request failed", "path", c.FullPath(), "kind", kind.String(), "error", err)
	} else {
		r.Logger.Warn("Request rejected", "path", c.FullPath(), "kind", kind.String(), "error", err)
	}

	if r.Metrics != nil {
		r.Metrics.IncCounter(errorsMetric)
		r.Metrics.IncCounterVec(ErrorsByKindTotal, kind.String())
	}

	c.JSON(status, dto.ErrorResponseDTO{Error: apperrors.Message(err)})
}
