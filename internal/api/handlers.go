package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"newsposter/internal/orchestrator"
	"newsposter/internal/statuslog"
)

// BatchRunner is the slice of the orchestrator the HTTP layer needs.
type BatchRunner interface {
	TryStart() (string, bool)
	State() orchestrator.State
}

type startBatchResponse struct {
	BatchID string `json:"batch_id"`
}

type API struct {
	runner   BatchRunner
	log      *statuslog.Log
	password string
}

func NewAPI(runner BatchRunner, statusLog *statuslog.Log, password string) *API {
	return &API{runner: runner, log: statusLog, password: password}
}

// RegisterRoutes registers API routes on the provided gin engine
func (a *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1", PasswordGate(a.password))
	{
		api.POST("/batch", a.StartBatch)
		api.GET("/batch", a.GetBatch)
		api.GET("/log", a.GetLog)
	}
}

// StartBatch triggers a new batch run
func (a *API) StartBatch(c *gin.Context) {
	batchID, ok := a.runner.TryStart()
	if !ok {
		log.Warn().Msg("rejecting batch start: batch already running")
		c.JSON(http.StatusConflict, gin.H{"error": "batch already running"})
		return
	}
	log.Info().Str("batch_id", batchID).Msg("batch started")
	c.JSON(http.StatusAccepted, startBatchResponse{BatchID: batchID})
}

// GetBatch returns the current batch snapshot
func (a *API) GetBatch(c *gin.Context) {
	c.JSON(http.StatusOK, a.runner.State())
}

// GetLog returns the status log in append order
func (a *API) GetLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": a.log.Snapshot()})
}
