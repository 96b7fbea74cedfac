package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linlinbupt123-crypto/sweep_service/service"
)

type SweepHandler struct {
	sweeper *service.Sweeper
}

func NewSweepHandler(sweeper *service.Sweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// TriggerSweep runs one cycle on demand and blocks until it finishes. A
// cycle already in flight is a conflict; the trigger is dropped, not queued.
func (h *SweepHandler) TriggerSweep(c *gin.Context) {
	report, err := h.sweeper.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrCycleInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": report.Addresses,
		"transfers": report.Transfers,
		"swept":     report.Swept,
		"errors":    report.Errors,
		"took":      report.Took.String(),
	})
}

// Status exposes the running totals and whether a cycle is in flight.
func (h *SweepHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": h.sweeper.Running(),
		"stats":   h.sweeper.Stats(),
	})
}
