package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/models"
	"github.com/karlodelara/ojtlog/utils"
)

// staticIdentity resolves to a fixed user; zero means unauthenticated.
type staticIdentity uint

func (s staticIdentity) CurrentUserID(context.Context) (uint, bool) {
	return uint(s), s != 0
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.LogEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLocal(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), 500)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestRepo(t *testing.T, db *gorm.DB, userID uint) *LogRepository {
	t.Helper()
	return NewLogRepository(db, NewCache(ListCacheTTL), staticIdentity(userID), newTestLocal(t))
}

func testForm(date string) models.LogEntryForm {
	return models.LogEntryForm{
		Date:              date,
		WeekNumber:        1,
		DayNumber:         1,
		TimeIn:            "08:00",
		TimeOut:           "17:00",
		TasksAccomplished: []string{"wrote reports", "reviewed deployment"},
		KeyLearnings:      []string{"server provisioning"},
		Challenges:        "flaky VPN",
		GoalsForTomorrow:  "finish module",
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	form := testForm("2025-06-02")
	form.TimeIn = "8:00"
	form.TimeOut = "5:00 PM"

	created, err := repo.Create(ctx, form)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created entry has no id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("created entry not found")
	}

	if got.Date != form.Date || got.WeekNumber != form.WeekNumber || got.DayNumber != form.DayNumber {
		t.Errorf("fields changed on round trip: %+v", got)
	}
	if got.TimeIn != "08:00" || got.TimeOut != "17:00" {
		t.Errorf("times not canonical: in=%q out=%q", got.TimeIn, got.TimeOut)
	}
	if want := utils.ComputeTotalHours(form.TimeIn, form.TimeOut); got.TotalHours != want {
		t.Errorf("total hours = %v, want %v", got.TotalHours, want)
	}
	if len(got.TasksAccomplished) != 2 || got.TasksAccomplished[0] != "wrote reports" {
		t.Errorf("tasks not preserved in order: %v", got.TasksAccomplished)
	}
	if len(got.KeyLearnings) != 1 || got.KeyLearnings[0] != "server provisioning" {
		t.Errorf("learnings not preserved: %v", got.KeyLearnings)
	}
	if got.Challenges != form.Challenges || got.GoalsForTomorrow != form.GoalsForTomorrow {
		t.Errorf("free text not preserved: %+v", got)
	}
}

func TestCreateDropsEmptyListItems(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)

	form := testForm("2025-06-02")
	form.TasksAccomplished = []string{"first", "", "  ", "second"}

	created, err := repo.Create(context.Background(), form)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.TasksAccomplished) != 2 {
		t.Errorf("expected empty items dropped, got %v", created.TasksAccomplished)
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 0)

	if _, err := repo.Create(context.Background(), testForm("2025-06-02")); err != ErrNotAuthenticated {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestGetByIDNotFoundCases(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := newTestRepo(t, db, 1)
	created, err := owner.Create(ctx, testForm("2025-06-02"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if entry, err := owner.GetByID(ctx, "no-such-id"); err != nil || entry != nil {
		t.Errorf("absent row: got (%v, %v), want (nil, nil)", entry, err)
	}

	stranger := newTestRepo(t, db, 2)
	if entry, err := stranger.GetByID(ctx, created.ID); err != nil || entry != nil {
		t.Errorf("foreign row: got (%v, %v), want (nil, nil)", entry, err)
	}

	anonymous := newTestRepo(t, db, 0)
	if entry, err := anonymous.GetByID(ctx, created.ID); err != nil || entry != nil {
		t.Errorf("unauthenticated: got (%v, %v), want (nil, nil)", entry, err)
	}
}

func TestListPagePagination(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		form := testForm(fmt.Sprintf("2025-01-%02d", i))
		form.DayNumber = i
		if _, err := repo.Create(ctx, form); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	first := repo.ListPage(ctx, 0)
	if len(first.Entries) != PageSize {
		t.Fatalf("page 0 size = %d, want %d", len(first.Entries), PageSize)
	}
	if first.TotalCount != 25 {
		t.Errorf("total = %d, want 25", first.TotalCount)
	}
	if !first.HasMore {
		t.Error("page 0 should have more")
	}
	if first.Entries[0].Date != "2025-01-25" {
		t.Errorf("entries not date-descending, first = %s", first.Entries[0].Date)
	}

	second := repo.ListPage(ctx, 1)
	if len(second.Entries) != 5 {
		t.Errorf("page 1 size = %d, want 5", len(second.Entries))
	}
	if second.HasMore {
		t.Error("page 1 should be the last page")
	}

	// Narrative columns are omitted from list views.
	if len(first.Entries[0].TasksAccomplished) != 0 || first.Entries[0].Challenges != "" {
		t.Errorf("list view carried narrative fields: %+v", first.Entries[0])
	}
}

func TestListPageUnauthenticated(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 0)

	page := repo.ListPage(context.Background(), 0)
	if len(page.Entries) != 0 || page.TotalCount != 0 || page.HasMore {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestListPageScopedToUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mine := newTestRepo(t, db, 1)
	theirs := newTestRepo(t, db, 2)
	if _, err := mine.Create(ctx, testForm("2025-06-02")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := theirs.Create(ctx, testForm("2025-06-03")); err != nil {
		t.Fatalf("create: %v", err)
	}

	page := mine.ListPage(ctx, 0)
	if page.TotalCount != 1 || len(page.Entries) != 1 {
		t.Fatalf("expected exactly my entry, got %+v", page)
	}
	if page.Entries[0].Date != "2025-06-02" {
		t.Errorf("got someone else's entry: %s", page.Entries[0].Date)
	}
}

func TestListPageCacheServesWithinTTL(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testForm("2025-06-02")); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := repo.ListPage(ctx, 0)

	// A row inserted behind the repository's back stays invisible while
	// the cached page is fresh: no second store read happens.
	hidden := models.LogEntry{
		ID: "hidden", UserID: 1, Date: "2025-06-03",
		WeekNumber: 1, DayNumber: 2, TimeIn: "08:00", TimeOut: "12:00",
	}
	if err := db.Create(&hidden).Error; err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	cached := repo.ListPage(ctx, 0)
	if cached.TotalCount != before.TotalCount {
		t.Errorf("cached read refetched: total %d -> %d", before.TotalCount, cached.TotalCount)
	}

	// Any write through the repository drops the cached pages.
	if _, err := repo.Create(ctx, testForm("2025-06-04")); err != nil {
		t.Fatalf("create: %v", err)
	}
	fresh := repo.ListPage(ctx, 0)
	if fresh.TotalCount != 3 {
		t.Errorf("after invalidation total = %d, want 3", fresh.TotalCount)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	created, err := repo.Create(ctx, testForm("2025-06-02"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if page := repo.ListPage(ctx, 0); page.TotalCount != 1 {
		t.Fatalf("precondition: total = %d", page.TotalCount)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if page := repo.ListPage(ctx, 0); page.TotalCount != 0 {
		t.Errorf("after delete total = %d, want 0", page.TotalCount)
	}
}

func TestUpdateRecomputesTotalHours(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	created, err := repo.Create(ctx, testForm("2025-06-02"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	form := testForm("2025-06-02")
	form.TimeIn = "09:00"
	form.TimeOut = "12:30"
	updated, err := repo.Update(ctx, created.ID, form)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated == nil {
		t.Fatal("update reported not-found for own row")
	}
	if updated.ID != created.ID {
		t.Errorf("id changed on update: %s -> %s", created.ID, updated.ID)
	}
	if want := utils.ComputeTotalHours("09:00", "12:30"); updated.TotalHours != want {
		t.Errorf("total hours = %v, want %v", updated.TotalHours, want)
	}
	if updated.UserID != created.UserID {
		t.Errorf("owner changed on update")
	}
}

func TestUpdateAndDeleteCrossUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := newTestRepo(t, db, 1)
	created, err := owner.Create(ctx, testForm("2025-06-02"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := newTestRepo(t, db, 2)

	form := testForm("2025-06-02")
	form.Challenges = "tampered"
	entry, err := stranger.Update(ctx, created.ID, form)
	if err != nil {
		t.Fatalf("cross-user update errored: %v", err)
	}
	if entry != nil {
		t.Fatal("cross-user update should behave like not-found")
	}

	if err := stranger.Delete(ctx, created.ID); err != nil {
		t.Fatalf("cross-user delete errored: %v", err)
	}

	// The owner's row is untouched by either attempt.
	got, err := owner.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("row lost: (%v, %v)", got, err)
	}
	if got.Challenges == "tampered" {
		t.Error("cross-user update mutated the row")
	}
}

func TestTotalHours(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	first := testForm("2025-06-02") // 08:00-17:00 = 8h
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := testForm("2025-06-03")
	second.TimeIn = "13:00"
	second.TimeOut = "17:00" // 4h
	created, err := repo.Create(ctx, second)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := repo.TotalHours(ctx); got != 12 {
		t.Errorf("total hours = %v, want 12", got)
	}

	// Rows with a NULL derived value count as zero, not as an error.
	if err := db.Exec("UPDATE ojt_logs SET total_hours = NULL WHERE id = ?", created.ID).Error; err != nil {
		t.Fatalf("null out total_hours: %v", err)
	}
	if got := repo.TotalHours(ctx); got != 8 {
		t.Errorf("total hours with NULL row = %v, want 8", got)
	}

	anonymous := newTestRepo(t, db, 0)
	if got := anonymous.TotalHours(ctx); got != 0 {
		t.Errorf("unauthenticated total = %v, want 0", got)
	}
}

func TestImportLegacyLocalData(t *testing.T) {
	db := newTestDB(t)
	local := newTestLocal(t)
	repo := NewLogRepository(db, NewCache(ListCacheTTL), staticIdentity(7), local)
	ctx := context.Background()

	legacy := []models.LogEntry{
		{ID: "legacy-1", Date: "2024-11-04", WeekNumber: 1, DayNumber: 1, TimeIn: "08:00", TimeOut: "17:00", TotalHours: 8},
		{ID: "legacy-2", Date: "2024-11-05", WeekNumber: 1, DayNumber: 2, TimeIn: "09:00", TimeOut: "18:00", TotalHours: 8},
	}
	if err := local.SaveLegacyLogs(legacy); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	result, err := repo.ImportLegacyLocalData(ctx)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if local.HasLegacyLogs() {
		t.Error("legacy store not cleared after successful import")
	}

	got, err := repo.GetByID(ctx, "legacy-1")
	if err != nil || got == nil {
		t.Fatalf("imported row missing: (%v, %v)", got, err)
	}
	if got.UserID != 7 {
		t.Errorf("imported row owner = %d, want 7", got.UserID)
	}

	// A second import finds nothing and makes no store call.
	again, err := repo.ImportLegacyLocalData(ctx)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if again.Imported != 0 {
		t.Errorf("second import = %d, want 0", again.Imported)
	}
}

func TestImportLegacyInsertIfAbsent(t *testing.T) {
	db := newTestDB(t)
	local := newTestLocal(t)
	repo := NewLogRepository(db, NewCache(ListCacheTTL), staticIdentity(7), local)
	ctx := context.Background()

	existing := models.LogEntry{
		ID: "legacy-1", UserID: 7, Date: "2024-12-01",
		WeekNumber: 9, DayNumber: 9, TimeIn: "10:00", TimeOut: "16:00", TotalHours: 5,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	legacy := []models.LogEntry{
		{ID: "legacy-1", Date: "2024-11-04", WeekNumber: 1, DayNumber: 1, TimeIn: "08:00", TimeOut: "17:00", TotalHours: 8},
	}
	if err := local.SaveLegacyLogs(legacy); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	result, err := repo.ImportLegacyLocalData(ctx)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("imported = %d, want 1", result.Imported)
	}

	// The pre-existing remote row wins the conflict and is left untouched.
	got, err := repo.GetByID(ctx, "legacy-1")
	if err != nil || got == nil {
		t.Fatalf("row missing: (%v, %v)", got, err)
	}
	if got.Date != "2024-12-01" || got.TotalHours != 5 {
		t.Errorf("existing remote row was overwritten: %+v", got)
	}
}

func TestImportLegacyEmptySkipsStore(t *testing.T) {
	db := newTestDB(t)
	local := newTestLocal(t)
	repo := NewLogRepository(db, NewCache(ListCacheTTL), staticIdentity(7), local)

	// Close the underlying connection: any store call would now fail, so
	// a clean zero result proves the short-circuit.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	result, err := repo.ImportLegacyLocalData(context.Background())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("imported = %d, want 0", result.Imported)
	}
}

func TestImportLegacyRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 0)

	if _, err := repo.ImportLegacyLocalData(context.Background()); err != ErrNotAuthenticated {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestInvalidateListsDropsCachedPages(t *testing.T) {
	db := newTestDB(t)
	repo := newTestRepo(t, db, 1)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testForm("2025-06-02")); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.ListPage(ctx, 0)

	hidden := models.LogEntry{
		ID: "hidden", UserID: 1, Date: "2025-06-03",
		WeekNumber: 1, DayNumber: 2, TimeIn: "08:00", TimeOut: "12:00",
	}
	if err := db.Create(&hidden).Error; err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	repo.InvalidateLists()

	if page := repo.ListPage(ctx, 0); page.TotalCount != 2 {
		t.Errorf("after explicit invalidation total = %d, want 2", page.TotalCount)
	}
}
