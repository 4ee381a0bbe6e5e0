// Package repository mediates all reads and writes of log entries against
// the relational store: per-user scoping, derived total_hours, and a
// TTL-bounded cache for paginated list reads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/models"
	"github.com/karlodelara/ojtlog/utils"
)

const (
	// PageSize is the fixed number of entries per list page.
	PageSize = 20
	// ListCacheTTL bounds the staleness of cached list pages.
	ListCacheTTL = 30 * time.Second

	// Every list-cache key carries this namespace so one coarse
	// Invalidate call drops all cached pages.
	listCacheNamespace = "logs"

	// List views omit the narrative columns to keep payloads small.
	listColumns = "id, user_id, date, week_number, day_number, time_in, time_out, total_hours, created_at, updated_at"
)

// ErrNotAuthenticated is returned by write operations when no user identity
// is resolvable.
var ErrNotAuthenticated = errors.New("user is not authenticated")

// Identity resolves the authenticated caller, per call and never cached.
type Identity interface {
	CurrentUserID(ctx context.Context) (uint, bool)
}

// Page is one slice of a user's log listing.
type Page struct {
	Entries    []models.LogEntry `json:"entries"`
	TotalCount int64             `json:"total_count"`
	HasMore    bool              `json:"has_more"`
}

// ImportResult reports how many legacy entries were migrated.
type ImportResult struct {
	Imported int `json:"imported"`
}

// LogRepository owns its cache instance; constructing one per test keeps
// cache state isolated.
type LogRepository struct {
	db       *gorm.DB
	cache    *Cache
	identity Identity
	local    *localstore.Store
}

// NewLogRepository wires the repository to its collaborators.
func NewLogRepository(db *gorm.DB, cache *Cache, identity Identity, local *localstore.Store) *LogRepository {
	return &LogRepository{db: db, cache: cache, identity: identity, local: local}
}

// ListPage returns up to PageSize entries for the caller, newest date
// first, with the exact total row count. Unauthenticated callers get an
// empty page rather than an error. A fresh result requires two store reads
// (row slice and count) issued concurrently; their completion order does
// not matter. Store failures degrade to an empty page.
func (r *LogRepository) ListPage(ctx context.Context, page int) Page {
	empty := Page{Entries: []models.LogEntry{}}
	if page < 0 {
		page = 0
	}

	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return empty
	}

	key := listCacheKey(userID, page)
	if v, ok := r.cache.Get(key); ok {
		if cached, ok := v.(Page); ok {
			return cached
		}
	}

	var (
		entries    []models.LogEntry
		total      int64
		entriesErr error
		countErr   error
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		entriesErr = r.db.WithContext(ctx).
			Model(&models.LogEntry{}).
			Select(listColumns).
			Where("user_id = ?", userID).
			Order("date DESC").
			Offset(page * PageSize).
			Limit(PageSize).
			Find(&entries).Error
	}()
	go func() {
		defer wg.Done()
		countErr = r.db.WithContext(ctx).
			Model(&models.LogEntry{}).
			Where("user_id = ?", userID).
			Count(&total).Error
	}()
	wg.Wait()

	if entriesErr != nil || countErr != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("list logs degraded to empty page user=%d page=%d entries_err=%v count_err=%v",
				userID, page, entriesErr, countErr)
		}
		return empty
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}
	result := Page{
		Entries:    entries,
		TotalCount: total,
		HasMore:    int64(page+1)*PageSize < total,
	}
	// Written as one complete entry only after both reads finished.
	r.cache.Set(key, result)
	return result
}

// GetByID fetches a full entry by primary key, scoped to the caller.
// Absent rows, rows owned by someone else, and unauthenticated callers all
// yield (nil, nil). Never cached.
func (r *LogRepository) GetByID(ctx context.Context, id string) (*models.LogEntry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return nil, nil
	}

	var entry models.LogEntry
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("get log by id degraded to not-found id=%s err=%v", id, err)
		}
		return nil, nil
	}
	return &entry, nil
}

// Create inserts a new entry for the caller with total_hours derived from
// the submitted times, then drops all cached list pages.
func (r *LogRepository) Create(ctx context.Context, form models.LogEntryForm) (*models.LogEntry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	entry := entryFromForm(userID, form)
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create log entry: %w", err)
	}

	r.cache.Invalidate(listCacheNamespace)
	return &entry, nil
}

// Update rewrites an entry scoped by both id and owner, recomputing
// total_hours. A mismatched owner behaves exactly like a missing row:
// (nil, nil), nothing mutated.
func (r *LogRepository) Update(ctx context.Context, id string, form models.LogEntryForm) (*models.LogEntry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	values := map[string]interface{}{
		"date":               form.Date,
		"week_number":        form.WeekNumber,
		"day_number":         form.DayNumber,
		"time_in":            utils.CanonicalClock(form.TimeIn),
		"time_out":           utils.CanonicalClock(form.TimeOut),
		"total_hours":        utils.ComputeTotalHours(form.TimeIn, form.TimeOut),
		"tasks_accomplished": nonEmpty(form.TasksAccomplished),
		"key_learnings":      nonEmpty(form.KeyLearnings),
		"challenges":         form.Challenges,
		"goals_for_tomorrow": form.GoalsForTomorrow,
	}

	res := r.db.WithContext(ctx).
		Model(&models.LogEntry{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("update log entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	r.cache.Invalidate(listCacheNamespace)

	var entry models.LogEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, fmt.Errorf("reload log entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry scoped by id and owner. A missing or foreign row
// is a no-op, never an error.
func (r *LogRepository) Delete(ctx context.Context, id string) error {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.LogEntry{}).Error; err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}

	r.cache.Invalidate(listCacheNamespace)
	return nil
}

// TotalHours sums total_hours across all of the caller's rows. NULL values
// count as zero; unauthenticated callers and store failures yield 0.
func (r *LogRepository) TotalHours(ctx context.Context) float64 {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return 0
	}

	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.LogEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(total_hours), 0)").
		Scan(&total).Error
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("total hours degraded to 0 user=%d err=%v", userID, err)
		}
		return 0
	}
	return total
}

// HasLegacyLocalData reports whether the deprecated local store still holds
// pre-migration entries.
func (r *LogRepository) HasLegacyLocalData() bool {
	return r.local.HasLegacyLogs()
}

// ImportLegacyLocalData upserts the legacy log set into the remote store
// under the caller's id, keeping each entry's pre-existing id as the
// conflict key: rows already present remotely are left untouched. The local
// set is cleared only after the upsert succeeds. An empty legacy set
// short-circuits without touching the store.
func (r *LogRepository) ImportLegacyLocalData(ctx context.Context) (ImportResult, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return ImportResult{}, ErrNotAuthenticated
	}

	legacy := r.local.LegacyLogs()
	if len(legacy) == 0 {
		return ImportResult{Imported: 0}, nil
	}

	rows := make([]models.LogEntry, len(legacy))
	for i, entry := range legacy {
		entry.UserID = userID
		entry.TimeIn = utils.CanonicalClock(entry.TimeIn)
		entry.TimeOut = utils.CanonicalClock(entry.TimeOut)
		rows[i] = entry
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return ImportResult{}, fmt.Errorf("import legacy logs: %w", err)
	}

	if err := r.local.ClearLegacyLogs(); err != nil {
		return ImportResult{}, fmt.Errorf("clear legacy logs: %w", err)
	}

	r.cache.Invalidate(listCacheNamespace)
	return ImportResult{Imported: len(rows)}, nil
}

// InvalidateLists drops every cached list page, for callers outside the
// write path (sign-out handling).
func (r *LogRepository) InvalidateLists() {
	r.cache.Invalidate(listCacheNamespace)
}

func listCacheKey(userID uint, page int) string {
	return fmt.Sprintf("%s:user=%d:page=%d", listCacheNamespace, userID, page)
}

// entryFromForm builds a row from client input: canonical HH:MM times,
// derived hours, and narrative lists stripped of empty items.
func entryFromForm(userID uint, form models.LogEntryForm) models.LogEntry {
	return models.LogEntry{
		UserID:            userID,
		Date:              form.Date,
		WeekNumber:        form.WeekNumber,
		DayNumber:         form.DayNumber,
		TimeIn:            utils.CanonicalClock(form.TimeIn),
		TimeOut:           utils.CanonicalClock(form.TimeOut),
		TotalHours:        utils.ComputeTotalHours(form.TimeIn, form.TimeOut),
		TasksAccomplished: nonEmpty(form.TasksAccomplished),
		KeyLearnings:      nonEmpty(form.KeyLearnings),
		Challenges:        form.Challenges,
		GoalsForTomorrow:  form.GoalsForTomorrow,
	}
}

func nonEmpty(items []string) models.StringArray {
	out := models.StringArray{}
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
