package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/platform/db/dbtest"
)

func TestRecordAndList(t *testing.T) {
	svc := New(dbtest.New(t))
	clock := time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{ActorID: "u1", ActorName: "admin", Action: "employee.create", EntityType: EntityEmployee, EntityID: "e1", Details: map[string]string{"matricule": "M001"}}))
	require.NoError(t, svc.Record(ctx, Entry{ActorID: "u2", ActorName: "agent", Action: "leave.create", EntityType: EntityLeave, EntityID: "l1"}))
	require.NoError(t, svc.Record(ctx, Entry{ActorID: "u1", ActorName: "admin", Action: "employee.update", EntityType: EntityEmployee, EntityID: "e1"}))

	all, err := svc.List(ctx, Filter{}, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "employee.update", all[0].Action)
	assert.Empty(t, all[2].Details)

	emp, err := svc.List(ctx, Filter{EntityType: EntityEmployee, EntityID: "e1"}, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, emp, 2)
	assert.JSONEq(t, `{"matricule":"M001"}`, emp[1].Details)

	total, err := svc.Count(ctx, Filter{Actor: "agent"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	page, err := svc.List(ctx, Filter{}, false, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "leave.create", page[0].Action)
}
