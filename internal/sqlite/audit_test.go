package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"boardsmcp/internal/domain/audit"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func TestAuditRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	itemID := 42
	entry := &audit.Entry{
		Op:         audit.OpCreate,
		Project:    "MyProject",
		WorkItemID: &itemID,
		Outcome:    audit.OutcomeOK,
		Detail:     `created Task "Build"`,
	}
	require.NoError(t, repo.Log(ctx, entry))
	require.NotZero(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := repo.List(ctx, audit.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, audit.OpCreate, entries[0].Op)
	require.Equal(t, "MyProject", entries[0].Project)
	require.NotNil(t, entries[0].WorkItemID)
	require.Equal(t, 42, *entries[0].WorkItemID)
	require.Equal(t, audit.OutcomeOK, entries[0].Outcome)
}

func TestAuditRepository_NullWorkItemID(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	require.NoError(t, repo.Log(ctx, &audit.Entry{
		Op:      audit.OpSetProject,
		Project: "Other",
		Outcome: audit.OutcomeOK,
		Detail:  `switched from "A" to "Other"`,
	}))

	entries, err := repo.List(ctx, audit.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].WorkItemID)
}

func TestAuditRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id1, id2 := 1, 2
	seed := []*audit.Entry{
		{Op: audit.OpCreate, Project: "A", WorkItemID: &id1, Outcome: audit.OutcomeOK, CreatedAt: base},
		{Op: audit.OpDelete, Project: "A", WorkItemID: &id1, Outcome: audit.OutcomeFailed, CreatedAt: base.Add(time.Minute)},
		{Op: audit.OpCreate, Project: "B", WorkItemID: &id2, Outcome: audit.OutcomeOK, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range seed {
		require.NoError(t, repo.Log(ctx, e))
	}

	byProject, err := repo.List(ctx, audit.ListOptions{Project: "A"})
	require.NoError(t, err)
	require.Len(t, byProject, 2)

	op := audit.OpCreate
	byOp, err := repo.List(ctx, audit.ListOptions{Op: &op})
	require.NoError(t, err)
	require.Len(t, byOp, 2)

	byItem, err := repo.List(ctx, audit.ListOptions{WorkItemID: &id2})
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	require.Equal(t, "B", byItem[0].Project)
}

func TestAuditRepository_NewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, &audit.Entry{
			Op:        audit.OpCreate,
			Project:   "A",
			Outcome:   audit.OutcomeOK,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.List(ctx, audit.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))

	paged, err := repo.List(ctx, audit.ListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, paged, 1)
}
