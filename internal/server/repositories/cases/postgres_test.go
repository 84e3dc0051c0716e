package cases

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func caseRows(c *models.Case) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "number", "title", "description", "status", "priority",
		"assignee_id", "created_by", "created_at", "updated_at"}).
		AddRow(c.ID, c.Number, c.Title, c.Description, c.Status, c.Priority,
			c.AssigneeID, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
}

func sampleCase() *models.Case {
	return &models.Case{
		ID: "case-1", Number: "CASE-0042", Title: "Broken invoice import",
		Description: "importer rejects CSV uploads", Status: "closed", Priority: "high",
		CreatedBy: "user-1",
		CreatedAt: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 20, 16, 30, 0, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+cases\s*\(id,\s*number,.*VALUES\s*\(\$1,.*\$10\)\s*$`

	c := sampleCase()
	mock.ExpectExec(q).
		WithArgs(c.ID, c.Number, c.Title, c.Description, c.Status, c.Priority,
			c.AssigneeID, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+cases`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleCase())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*number,.*FROM\s+cases\s+WHERE\s+id\s*=\s*\$1\s*$`

	c := sampleCase()
	mock.ExpectQuery(q).WithArgs(c.ID).WillReturnRows(caseRows(c))

	got, err := repo.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.ID != c.ID || got.Number != c.Number || got.Priority != "high" {
		t.Fatalf("unexpected case: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+cases\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+cases\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE\s*$`

	c := sampleCase()
	mock.ExpectQuery(q).WithArgs(c.ID).WillReturnRows(caseRows(c))

	got, err := repo.GetForUpdate(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetForUpdate error: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("unexpected case: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByNumber_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+cases\s+WHERE\s+number\s*=\s*\$1\s*$`

	c := sampleCase()
	mock.ExpectQuery(q).WithArgs(c.Number).WillReturnRows(caseRows(c))

	got, err := repo.GetByNumber(context.Background(), c.Number)
	if err != nil {
		t.Fatalf("GetByNumber error: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("unexpected case: %+v", got)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+cases\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("case-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "case-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+cases\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
