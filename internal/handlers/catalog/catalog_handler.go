// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"net/http"

	"skycover-agent/internal/backend"
	"skycover-agent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler proxies template and policy reads to the backend so the UI
// talks only to the agent.
type CatalogHandler struct {
	backend *backend.Client
	logger  *zap.Logger
}

func NewCatalogHandler(backendClient *backend.Client, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		backend: backendClient,
		logger:  logger,
	}
}

// ListTemplates returns the backend's policy templates.
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	templates, err := h.backend.PolicyTemplates(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch policy templates", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to fetch policy templates", err)
		return
	}

	response.Success(c, http.StatusOK, "policy templates", templates)
}

// ListPolicies returns the user's recorded policies.
func (h *CatalogHandler) ListPolicies(c *gin.Context) {
	policies, err := h.backend.UserPolicies(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch policies", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to fetch policies", err)
		return
	}

	response.Success(c, http.StatusOK, "policies", policies)
}
