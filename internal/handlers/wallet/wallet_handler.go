// internal/handlers/wallet/wallet_handler.go
package wallet

import (
	"net/http"

	xerrors "skycover-agent/internal/pkg/errors"
	"skycover-agent/internal/pkg/response"
	walletUsecase "skycover-agent/internal/service/wallet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WalletHandler struct {
	binder *walletUsecase.Binder
	logger *zap.Logger
}

func NewWalletHandler(binder *walletUsecase.Binder, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		binder: binder,
		logger: logger,
	}
}

// Connect prompts the provider for account access and binds the result.
func (h *WalletHandler) Connect(c *gin.Context) {
	address, err := h.binder.Connect(c.Request.Context())
	if err != nil {
		h.logger.Warn("wallet connect failed", zap.Error(err))
		status := http.StatusBadGateway
		if xerrors.Is(err, xerrors.ErrWalletUnavailable) {
			status = http.StatusServiceUnavailable
		}
		response.Error(c, status, "wallet connect failed", err)
		return
	}

	response.Success(c, http.StatusOK, "wallet connected", gin.H{"address": address})
}

// Disconnect clears the local binding. The provider itself is not touched.
func (h *WalletHandler) Disconnect(c *gin.Context) {
	h.binder.Disconnect(c.Request.Context())
	response.Success(c, http.StatusOK, "wallet disconnected", nil)
}

// Sync re-verifies the bound address against the provider and pushes it to
// the backend. Failures here are hard failures.
func (h *WalletHandler) Sync(c *gin.Context) {
	address, err := h.binder.Sync(c.Request.Context())
	if err != nil {
		h.logger.Warn("wallet sync failed", zap.Error(err))
		status := http.StatusBadGateway
		if xerrors.Is(err, xerrors.ErrWalletUnavailable) {
			status = http.StatusServiceUnavailable
		}
		response.Error(c, status, "wallet sync failed", err)
		return
	}

	response.Success(c, http.StatusOK, "wallet synced", gin.H{"address": address})
}

// GetBinding returns the current wallet binding snapshot.
func (h *WalletHandler) GetBinding(c *gin.Context) {
	response.Success(c, http.StatusOK, "wallet state", h.binder.Binding())
}
