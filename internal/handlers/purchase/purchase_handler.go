// internal/handlers/purchase/purchase_handler.go
package purchase

import (
	"net/http"
	"strconv"

	"skycover-agent/internal/backend"
	purchaseDomain "skycover-agent/internal/domain/purchase"
	"skycover-agent/internal/pkg/response"
	"skycover-agent/internal/repository/postgres"
	purchaseUsecase "skycover-agent/internal/service/purchase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PurchaseHandler struct {
	orchestrator *purchaseUsecase.Orchestrator
	backend      *backend.Client
	journal      *postgres.PurchaseRepository
	logger       *zap.Logger
}

// NewPurchaseHandler wires the purchase flow. journal may be nil when no
// database is configured; journal endpoints then return 404.
func NewPurchaseHandler(orchestrator *purchaseUsecase.Orchestrator, backendClient *backend.Client, journal *postgres.PurchaseRepository, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		orchestrator: orchestrator,
		backend:      backendClient,
		journal:      journal,
		logger:       logger,
	}
}

// CreatePurchase runs one purchase attempt to a terminal outcome. The outcome
// is always 200: failure is a domain result, not a transport error.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req purchaseDomain.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	templates, err := h.backend.PolicyTemplates(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch policy templates", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "failed to fetch policy templates", err)
		return
	}

	var intent *purchaseDomain.Intent
	for i := range templates {
		if templates[i].ID == req.TemplateID {
			intent, err = purchaseUsecase.BuildIntent(&templates[i], &req.Location)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "invalid policy terms", err)
				return
			}
			break
		}
	}
	if intent == nil {
		response.NotFound(c, "policy template not found")
		return
	}

	outcome := h.orchestrator.Purchase(c.Request.Context(), intent, req.PolicyName)

	response.Success(c, http.StatusOK, "purchase finished", outcome)
}

// ListPurchases returns journaled attempts, newest first.
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	if h.journal == nil {
		response.NotFound(c, "purchase journal not configured")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	outcomes, err := h.journal.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list purchases", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list purchases", err)
		return
	}

	response.Success(c, http.StatusOK, "purchases", outcomes)
}

// ListUnreconciled returns chain-only attempts awaiting manual reconciliation.
func (h *PurchaseHandler) ListUnreconciled(c *gin.Context) {
	if h.journal == nil {
		response.NotFound(c, "purchase journal not configured")
		return
	}

	outcomes, err := h.journal.ListUnreconciled(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list unreconciled purchases", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list unreconciled purchases", err)
		return
	}

	response.Success(c, http.StatusOK, "unreconciled purchases", outcomes)
}
