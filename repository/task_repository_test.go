package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskTracker/internal/apperr"
	"taskTracker/internal/secret"
	"taskTracker/internal/sla"
	"taskTracker/internal/testutil"
	"taskTracker/models"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := sla.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func seedReferences(t *testing.T, d *sql.DB) (categoryID, personID int64) {
	t.Helper()
	ctx := context.Background()
	c, err := NewCategoryRepository(d).Create(ctx, "Billing")
	require.NoError(t, err)
	p, err := NewPersonRepository(d).Create(ctx, "Bob")
	require.NoError(t, err)
	return c.ID, p.ID
}

func TestTaskRepository_CreateDerivesSLA(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	cat, person := seedReferences(t, d)
	repo := NewTaskRepository(d).WithClock(fixedClock("2024-01-01T09:15:00Z"))
	ctx := context.Background()

	proof := "invoice.pdf"
	created, err := repo.Create(ctx, models.NewTask{
		Title:            "  Invoice review ",
		CategoryID:       &cat,
		PersonID:         &person,
		Status:           "Done",
		DueAt:            date(t, "2024-01-10"),
		CompletedAt:      date(t, "2024-01-15"),
		Priority:         "High",
		Remarks:          "late vendor reply",
		ExternalID:       "CRM-42",
		ExternalSecret:   "hunter2",
		CompletedByAdmin: "yes",
		ProofFile:        &proof,
	})
	require.NoError(t, err)

	assert.Equal(t, "Invoice review", created.Title)
	assert.Equal(t, "Billing", created.CategoryName)
	assert.Equal(t, "Bob", created.PersonName)
	assert.Equal(t, "hunter2", created.ExternalSecret)
	require.NotNil(t, created.ProofFile)
	assert.Equal(t, "invoice.pdf", *created.ProofFile)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC), created.CreatedAt)

	m := created.SLA()
	require.NotNil(t, m.SLADays)
	require.NotNil(t, m.DelayDays)
	assert.Equal(t, 9, *m.SLADays)
	assert.Equal(t, 5, *m.DelayDays)
	assert.True(t, m.Breach)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 9, *list[0].SLA().SLADays)
}

func TestTaskRepository_TitleIsOnlyRequiredField(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewTaskRepository(d)
	ctx := context.Background()

	_, err := repo.Create(ctx, models.NewTask{Title: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	task, err := repo.Create(ctx, models.NewTask{Title: "Bare"})
	require.NoError(t, err)
	assert.Nil(t, task.CategoryID)
	assert.Nil(t, task.PersonID)
	assert.Nil(t, task.DueAt)
	assert.Nil(t, task.ProofFile)

	m := task.SLA()
	assert.Nil(t, m.SLADays)
	assert.Nil(t, m.DelayDays)
	assert.False(t, m.Breach)
}

func TestTaskRepository_RejectsUnknownReferences(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	cat, _ := seedReferences(t, d)
	repo := NewTaskRepository(d)
	ctx := context.Background()

	missing := int64(404)
	_, err := repo.Create(ctx, models.NewTask{Title: "x", CategoryID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = repo.Create(ctx, models.NewTask{Title: "x", CategoryID: &cat, PersonID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskRepository_SealsExternalSecret(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	sealer, err := secret.NewAESGCM([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	repo := NewTaskRepository(d).WithSealer(sealer)
	assert.True(t, repo.SealsSecrets())
	ctx := context.Background()

	task, err := repo.Create(ctx, models.NewTask{Title: "CRM sync", ExternalID: "CRM-1", ExternalSecret: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", task.ExternalSecret)

	var stored string
	var sealed bool
	require.NoError(t, d.QueryRow(`SELECT external_system_secret, external_secret_sealed FROM tasks WHERE id = ?`, task.ID).Scan(&stored, &sealed))
	assert.True(t, sealed)
	assert.NotEqual(t, "s3cret", stored)

	// Without the key the row cannot be read back.
	_, err = NewTaskRepository(d).GetByID(ctx, task.ID)
	assert.Error(t, err)
}

func TestTaskRepository_ClearSecretByDefault(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewTaskRepository(d)
	assert.False(t, repo.SealsSecrets())

	task, err := repo.Create(context.Background(), models.NewTask{Title: "CRM sync", ExternalSecret: "plain"})
	require.NoError(t, err)

	var stored string
	require.NoError(t, d.QueryRow(`SELECT external_system_secret FROM tasks WHERE id = ?`, task.ID).Scan(&stored))
	assert.Equal(t, "plain", stored)
}

func TestTaskRepository_GetByIDMissing(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	got, err := NewTaskRepository(d).GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}
