package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/cases"
	"github.com/mkovalev/casetrack/internal/server/repositories/controls"
	"github.com/mkovalev/casetrack/internal/server/repositories/dispositions"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
	"github.com/mkovalev/casetrack/internal/server/repositories/timeentries"
	"github.com/mkovalev/casetrack/internal/server/repositories/todos"
)

// fakeStore is a map-backed stand-in for the five logical tables plus
// dispositions. It is NOT transactional: tests that exercise rollback
// semantics clone the store before the failing call and swap the clone back
// in, emulating what the aborted transaction would have left behind.
// Transaction choreography itself (Begin/Commit/Rollback) runs against a
// sqlmock database.
type fakeStore struct {
	cases        map[string]*models.Case
	todos        map[string]*models.Todo
	controls     map[string]*models.ControlRecord
	automatic    map[string]models.AutomaticTimeEntry
	manual       map[string]models.ManualTimeEntry
	snapshots    map[string]*models.ArchiveSnapshot
	dispositions map[string]*models.DispositionRecord

	// Error injection points.
	failSnapshotCreate error
	failManualCreate   error
	failCaseCreate     error

	// Overrides the live automatic entry count seen by verification,
	// emulating an out-of-band deletion between phase 1 and phase 2.
	automaticCountOverride *int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:        map[string]*models.Case{},
		todos:        map[string]*models.Todo{},
		controls:     map[string]*models.ControlRecord{},
		automatic:    map[string]models.AutomaticTimeEntry{},
		manual:       map[string]models.ManualTimeEntry{},
		snapshots:    map[string]*models.ArchiveSnapshot{},
		dispositions: map[string]*models.DispositionRecord{},
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range s.cases {
		cp := *v
		c.cases[k] = &cp
	}
	for k, v := range s.todos {
		cp := *v
		c.todos[k] = &cp
	}
	for k, v := range s.controls {
		cp := *v
		c.controls[k] = &cp
	}
	for k, v := range s.automatic {
		c.automatic[k] = v
	}
	for k, v := range s.manual {
		c.manual[k] = v
	}
	for k, v := range s.snapshots {
		cp := *v
		c.snapshots[k] = &cp
	}
	for k, v := range s.dispositions {
		cp := *v
		c.dispositions[k] = &cp
	}
	c.failSnapshotCreate = s.failSnapshotCreate
	c.failManualCreate = s.failManualCreate
	c.failCaseCreate = s.failCaseCreate
	c.automaticCountOverride = s.automaticCountOverride
	return c
}

func (s *fakeStore) replaceWith(o *fakeStore) {
	s.cases = o.cases
	s.todos = o.todos
	s.controls = o.controls
	s.automatic = o.automatic
	s.manual = o.manual
	s.snapshots = o.snapshots
	s.dispositions = o.dispositions
}

// fakeRepoManager vends fake repositories over one shared store, ignoring
// the DBTX handle entirely.
type fakeRepoManager struct {
	store *fakeStore
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Cases(db dbx.DBTX) cases.Repository {
	return &fakeCasesRepo{s: m.store}
}

func (m *fakeRepoManager) Todos(db dbx.DBTX) todos.Repository {
	return &fakeTodosRepo{s: m.store}
}

func (m *fakeRepoManager) Controls(db dbx.DBTX) controls.Repository {
	return &fakeControlsRepo{s: m.store}
}

func (m *fakeRepoManager) TimeEntries(db dbx.DBTX) timeentries.Repository {
	return &fakeTimeEntriesRepo{s: m.store}
}

func (m *fakeRepoManager) Snapshots(db dbx.DBTX) snapshots.Repository {
	return &fakeSnapshotsRepo{s: m.store}
}

func (m *fakeRepoManager) Dispositions(db dbx.DBTX) dispositions.Repository {
	return &fakeDispositionsRepo{s: m.store}
}

type fakeCasesRepo struct{ s *fakeStore }

func (r *fakeCasesRepo) Create(ctx context.Context, c *models.Case) error {
	if r.s.failCaseCreate != nil {
		return r.s.failCaseCreate
	}
	cp := *c
	r.s.cases[c.ID] = &cp
	return nil
}

func (r *fakeCasesRepo) Get(ctx context.Context, id string) (*models.Case, error) {
	c, ok := r.s.cases[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCasesRepo) GetForUpdate(ctx context.Context, id string) (*models.Case, error) {
	return r.Get(ctx, id)
}

func (r *fakeCasesRepo) GetByNumber(ctx context.Context, number string) (*models.Case, error) {
	for _, c := range r.s.cases {
		if c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeCasesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.cases[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.cases, id)
	return nil
}

type fakeTodosRepo struct{ s *fakeStore }

func (r *fakeTodosRepo) Create(ctx context.Context, t *models.Todo) error {
	cp := *t
	r.s.todos[t.ID] = &cp
	return nil
}

func (r *fakeTodosRepo) Get(ctx context.Context, id string) (*models.Todo, error) {
	t, ok := r.s.todos[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTodosRepo) GetForUpdate(ctx context.Context, id string) (*models.Todo, error) {
	return r.Get(ctx, id)
}

func (r *fakeTodosRepo) GetByNumber(ctx context.Context, number string) (*models.Todo, error) {
	for _, t := range r.s.todos {
		if t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTodosRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.todos[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.todos, id)
	return nil
}

type fakeControlsRepo struct{ s *fakeStore }

func (r *fakeControlsRepo) Create(ctx context.Context, c *models.ControlRecord) error {
	cp := *c
	r.s.controls[c.ID] = &cp
	return nil
}

func (r *fakeControlsRepo) GetByOwner(ctx context.Context, kind models.AggregateKind, ownerID string) (*models.ControlRecord, error) {
	for _, c := range r.s.controls {
		if c.Kind == kind && c.OwnerID == ownerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeControlsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.controls[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.controls, id)
	return nil
}

type fakeTimeEntriesRepo struct{ s *fakeStore }

func (r *fakeTimeEntriesRepo) CreateAutomatic(ctx context.Context, e *models.AutomaticTimeEntry) error {
	r.s.automatic[e.ID] = *e
	return nil
}

func (r *fakeTimeEntriesRepo) CreateManual(ctx context.Context, e *models.ManualTimeEntry) error {
	if r.s.failManualCreate != nil {
		return r.s.failManualCreate
	}
	r.s.manual[e.ID] = *e
	return nil
}

func (r *fakeTimeEntriesRepo) ListAutomaticByControl(ctx context.Context, controlID string) ([]models.AutomaticTimeEntry, error) {
	var result []models.AutomaticTimeEntry
	for _, e := range r.s.automatic {
		if e.ControlID == controlID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.Before(result[j].StartedAt) })
	return result, nil
}

func (r *fakeTimeEntriesRepo) ListManualByControl(ctx context.Context, controlID string) ([]models.ManualTimeEntry, error) {
	var result []models.ManualTimeEntry
	for _, e := range r.s.manual {
		if e.ControlID == controlID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryDate.Before(result[j].EntryDate) })
	return result, nil
}

func (r *fakeTimeEntriesRepo) CountAutomaticByControl(ctx context.Context, controlID string) (int, error) {
	if r.s.automaticCountOverride != nil {
		return *r.s.automaticCountOverride, nil
	}
	entries, _ := r.ListAutomaticByControl(ctx, controlID)
	return len(entries), nil
}

func (r *fakeTimeEntriesRepo) CountManualByControl(ctx context.Context, controlID string) (int, error) {
	entries, _ := r.ListManualByControl(ctx, controlID)
	return len(entries), nil
}

func (r *fakeTimeEntriesRepo) DeleteByControl(ctx context.Context, controlID string) error {
	for id, e := range r.s.automatic {
		if e.ControlID == controlID {
			delete(r.s.automatic, id)
		}
	}
	for id, e := range r.s.manual {
		if e.ControlID == controlID {
			delete(r.s.manual, id)
		}
	}
	return nil
}

type fakeSnapshotsRepo struct{ s *fakeStore }

func (r *fakeSnapshotsRepo) Create(ctx context.Context, s *models.ArchiveSnapshot) error {
	if r.s.failSnapshotCreate != nil {
		return r.s.failSnapshotCreate
	}
	cp := *s
	r.s.snapshots[s.ID] = &cp
	return nil
}

func (r *fakeSnapshotsRepo) Get(ctx context.Context, id string) (*models.ArchiveSnapshot, error) {
	s, ok := r.s.snapshots[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSnapshotsRepo) GetForUpdate(ctx context.Context, id string) (*models.ArchiveSnapshot, error) {
	return r.Get(ctx, id)
}

func (r *fakeSnapshotsRepo) MarkRestored(ctx context.Context, id, restoredBy string, restoredAt time.Time) error {
	s, ok := r.s.snapshots[id]
	if !ok || s.IsRestored {
		return common.ErrorConflict
	}
	s.IsRestored = true
	s.RestoredAt = &restoredAt
	s.RestoredBy = &restoredBy
	return nil
}

func (r *fakeSnapshotsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.snapshots[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.snapshots, id)
	return nil
}

func (r *fakeSnapshotsRepo) List(ctx context.Context, filter snapshots.ListFilter) ([]*models.ArchiveSnapshot, int64, error) {
	var matched []*models.ArchiveSnapshot
	for _, s := range r.s.snapshots {
		if !filter.IncludeRestored && s.IsRestored {
			continue
		}
		if filter.Kind != "" && s.Kind != filter.Kind {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(s.Number, filter.Search) && !strings.Contains(s.Title, filter.Search) {
			continue
		}
		cp := *s
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if strings.EqualFold(filter.SortOrder, "asc") {
			return matched[i].ArchivedAt.Before(matched[j].ArchivedAt)
		}
		return matched[j].ArchivedAt.Before(matched[i].ArchivedAt)
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

func (r *fakeSnapshotsRepo) Stats(ctx context.Context, monthStart time.Time) (*snapshots.Stats, error) {
	stats := &snapshots.Stats{TotalByKind: map[models.AggregateKind]int64{}}
	for _, s := range r.s.snapshots {
		if !s.IsRestored {
			stats.TotalArchived++
			stats.TotalByKind[s.Kind]++
		}
		if !s.ArchivedAt.Before(monthStart) {
			stats.ArchivedThisMonth++
		}
		if s.RestoredAt != nil && !s.RestoredAt.Before(monthStart) {
			stats.RestoredThisMonth++
		}
	}
	return stats, nil
}

type fakeDispositionsRepo struct{ s *fakeStore }

func (r *fakeDispositionsRepo) Create(ctx context.Context, d *models.DispositionRecord) error {
	cp := *d
	r.s.dispositions[d.ID] = &cp
	return nil
}

func (r *fakeDispositionsRepo) ListByCaseNumber(ctx context.Context, number string) ([]models.DispositionRecord, error) {
	var result []models.DispositionRecord
	for _, d := range r.s.dispositions {
		if d.CaseNumber == number {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeDispositionsRepo) UnlinkCase(ctx context.Context, caseID string) (int64, error) {
	var n int64
	for _, d := range r.s.dispositions {
		if d.CaseID != nil && *d.CaseID == caseID {
			d.CaseID = nil
			n++
		}
	}
	return n, nil
}
