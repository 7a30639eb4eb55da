package middleware

import (
	"net/http"
	"strings"

	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys under which the resolved dealership is stored.
const (
	DealershipIDKey     = "dealership_id"
	DealershipHeaderKey = "X-Dealership-ID"
)

// DealershipConfig holds configuration for the dealership context middleware
type DealershipConfig struct {
	// SkipPaths are paths served without a dealership context, such as
	// health checks and the monitoring surface.
	SkipPaths []string
	// Required rejects requests without a dealership ID when true.
	Required bool
}

// DefaultDealershipConfig returns the default dealership middleware configuration
func DefaultDealershipConfig() DealershipConfig {
	return DealershipConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/monitoring"},
		Required:  true,
	}
}

// Dealership extracts the tenant dealership from the X-Dealership-ID header
// and stores it in both the gin context and the request context, so handlers
// and the logger see the same tenant.
func Dealership() gin.HandlerFunc {
	return DealershipWithConfig(DefaultDealershipConfig())
}

// DealershipWithConfig returns dealership middleware with custom configuration
func DealershipWithConfig(cfg DealershipConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(DealershipHeaderKey)
		if raw == "" {
			if cfg.Required {
				abortDealership(c, "Dealership identification required")
				return
			}
			c.Next()
			return
		}

		dealershipID, err := uuid.Parse(raw)
		if err != nil || dealershipID == uuid.Nil {
			abortDealership(c, "Invalid dealership ID format")
			return
		}

		c.Set(DealershipIDKey, dealershipID.String())

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithDealershipID(ctx, log, dealershipID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortDealership(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, message, GetRequestID(c)))
}

// GetDealershipID retrieves the dealership ID from the gin context
func GetDealershipID(c *gin.Context) string {
	return c.GetString(DealershipIDKey)
}

// GetDealershipUUID retrieves the dealership ID as a UUID. Returns uuid.Nil
// when no dealership context is present.
func GetDealershipUUID(c *gin.Context) uuid.UUID {
	raw := GetDealershipID(c)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
