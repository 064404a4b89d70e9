package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/rss-inbox/app/cfg"
	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/state"
)

// ActionStatsProvider reports per-action diagnostics for the stats endpoint.
type ActionStatsProvider interface {
	Stats() map[string]map[string]interface{}
}

type Handler struct {
	config  *config.Config
	state   *state.Manager
	actions ActionStatsProvider
}

func NewHandler(c *config.Config, stateManager *state.Manager, actions ActionStatsProvider) *Handler {
	return &Handler{
		config:  c,
		state:   stateManager,
		actions: actions,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"version":       cfg.GetVersion(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"enabled_feeds": len(h.config.EnabledFeeds()),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.state.Stats()

	c.JSON(http.StatusOK, gin.H{
		"feeds_tracked":     stats.TotalFeeds,
		"processed_entries": stats.TotalProcessedEntries,
		"total_errors":      stats.TotalErrors,
		"feeds_with_errors": stats.FeedsWithErrors,
		"last_updated":      stats.LastUpdated,
		"actions":           h.actions.Stats(),
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds := make([]gin.H, 0, len(h.config.Feeds))

	for i := range h.config.Feeds {
		feedConfig := &h.config.Feeds[i]

		info := gin.H{
			"name":        feedConfig.Name,
			"url":         feedConfig.URL,
			"handler":     feedConfig.Handler,
			"action":      feedConfig.Action,
			"enabled":     feedConfig.IsEnabled(),
			"error_count": h.state.ErrorCount(feedConfig.URL),
		}

		if lastCheck, ok := h.state.LastCheck(feedConfig.URL); ok {
			info["last_check"] = lastCheck.UTC().Format(time.RFC3339)
		}

		feeds = append(feeds, info)
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds})
}
