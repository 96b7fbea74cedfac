package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/linlinbupt123-crypto/sweep_service/errors"
	"github.com/linlinbupt123-crypto/sweep_service/request"
	"github.com/linlinbupt123-crypto/sweep_service/service"
)

type WalletHandler struct {
	wallets *service.Wallets
}

func NewWalletHandler(wallets *service.Wallets) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GenerateAddress allocates the next deposit address for an owner.
func (h *WalletHandler) GenerateAddress(c *gin.Context) {
	var req request.GenerateAddressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addr, err := h.wallets.GenerateAddress(c.Request.Context(), req.OwnerRef, req.Label)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": addr.Address,
		"index":   addr.Index,
		"label":   addr.Label,
	})
}

// GetAddresses lists every address allocated to an owner.
func (h *WalletHandler) GetAddresses(c *gin.Context) {
	ownerRef, err := strconv.ParseInt(c.Param("ownerRef"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner reference"})
		return
	}

	addrs, err := h.wallets.ListAddresses(c.Request.Context(), ownerRef)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, addrs)
}

// GetBalance reads both balances of one address on demand.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	snap, err := h.wallets.AddressBalance(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": snap.Address,
		"native":  readingBody(snap.Native),
		"token":   readingBody(snap.Token),
	})
}

// readingBody keeps a failed read distinguishable from a zero balance.
func readingBody(r service.Reading) gin.H {
	if !r.Readable() {
		return gin.H{"unreadable": r.Err.Error()}
	}
	return gin.H{"amount": r.Amount}
}

func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
