package geo

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/pkg/response"
)

// DistanceFinder computes a distance matrix.
type DistanceFinder interface {
	Distance(ctx context.Context, origins, destinations []string) (*Matrix, error)
}

// Handler serves proximity queries.
type Handler struct {
	finder DistanceFinder
	logger *zap.Logger
}

// NewHandler creates a proximity handler.
func NewHandler(finder DistanceFinder, logger *zap.Logger) *Handler {
	return &Handler{finder: finder, logger: logger}
}

// Proximity handles GET /proximity?origins=a|b&destinations=c|d.
func (h *Handler) Proximity(c *gin.Context) {
	origins := SplitPlaces(c.Query("origins"))
	destinations := SplitPlaces(c.Query("destinations"))
	if len(origins) == 0 || len(destinations) == 0 {
		response.BadRequest(c, "origins and destinations are required")
		return
	}
	matrix, err := h.finder.Distance(c.Request.Context(), origins, destinations)
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			response.ServiceUnavailable(c, "proximity search is not configured")
			return
		}
		h.logger.Error("distance matrix", zap.Error(err))
		response.BadGateway(c, "failed to fetch distances")
		return
	}
	response.OK(c, matrix)
}
