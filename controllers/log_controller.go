package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/models"
	"github.com/karlodelara/ojtlog/repository"
	"github.com/karlodelara/ojtlog/utils"
)

// LogController exposes the log repository over HTTP.
type LogController struct {
	repo  *repository.LogRepository
	local *localstore.Store
}

// NewLogController creates a LogController.
func NewLogController(repo *repository.LogRepository, local *localstore.Store) *LogController {
	return &LogController{repo: repo, local: local}
}

// List returns one page of the caller's log entries, newest first.
// Unauthenticated callers receive an empty page.
func (l *LogController) List(ctx *gin.Context) {
	page := 0
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}

	result := l.repo.ListPage(ctx, page)
	utils.Success(ctx, gin.H{
		"entries":     result.Entries,
		"total_count": result.TotalCount,
		"has_more":    result.HasMore,
		"page":        page,
		"page_size":   repository.PageSize,
	})
}

// Get returns a single full entry by id.
func (l *LogController) Get(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing log id")
		return
	}

	entry, err := l.repo.GetByID(ctx, id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load log entry")
		return
	}
	if entry == nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "log entry not found")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// Create stores a new log entry for the authenticated caller.
func (l *LogController) Create(ctx *gin.Context) {
	var form models.LogEntryForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}
	sanitizeForm(&form)

	entry, err := l.repo.Create(ctx, form)
	if err != nil {
		if errors.Is(err, repository.ErrNotAuthenticated) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create log entry")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// Update rewrites an existing entry owned by the caller.
func (l *LogController) Update(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing log id")
		return
	}

	var form models.LogEntryForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}
	sanitizeForm(&form)

	entry, err := l.repo.Update(ctx, id, form)
	if err != nil {
		if errors.Is(err, repository.ErrNotAuthenticated) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to update log entry")
		return
	}
	if entry == nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "log entry not found")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// Delete removes an entry owned by the caller. Deleting a missing row
// succeeds quietly.
func (l *LogController) Delete(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing log id")
		return
	}

	if err := l.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotAuthenticated) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to delete log entry")
		return
	}
	utils.Success(ctx, gin.H{"message": "log entry deleted"})
}

// Progress reports total logged hours against the configured target.
func (l *LogController) Progress(ctx *gin.Context) {
	total := l.repo.TotalHours(ctx)
	settings := l.local.GetSettings()
	utils.Success(ctx, gin.H{
		"total_hours":  total,
		"target_hours": settings.TargetHours,
	})
}

// LegacyStatus reports whether a pre-migration local log set exists.
func (l *LogController) LegacyStatus(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"has_legacy": l.repo.HasLegacyLocalData()})
}

// ImportLegacy migrates the deprecated local log set into the remote store.
func (l *LogController) ImportLegacy(ctx *gin.Context) {
	result, err := l.repo.ImportLegacyLocalData(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotAuthenticated) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to import legacy logs")
		return
	}
	utils.Success(ctx, result)
}

// sanitizeForm strips unsafe HTML from the narrative fields before they
// reach the store.
func sanitizeForm(form *models.LogEntryForm) {
	for i, task := range form.TasksAccomplished {
		form.TasksAccomplished[i] = utils.Sanitize(task)
	}
	for i, learning := range form.KeyLearnings {
		form.KeyLearnings[i] = utils.Sanitize(learning)
	}
	form.Challenges = utils.Sanitize(form.Challenges)
	form.GoalsForTomorrow = utils.Sanitize(form.GoalsForTomorrow)
}
