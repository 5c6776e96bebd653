package interfaces

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server interface defines the methods for a server implementation.
type Server interface {
	AddRoute(method, route string, handlers ...gin.HandlerFunc) error
	Handler() http.Handler
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}
