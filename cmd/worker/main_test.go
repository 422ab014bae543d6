package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college/internal/attendance"
	"college/internal/domain"
	"college/internal/queue"
	"college/internal/repository"
)

type recordingCache struct {
	set []attendance.Summary
}

func (c *recordingCache) Get(context.Context, string, string) (attendance.Summary, bool, error) {
	return attendance.Summary{}, false, nil
}

func (c *recordingCache) Set(_ context.Context, s attendance.Summary) error {
	c.set = append(c.set, s)
	return nil
}

func (c *recordingCache) Invalidate(context.Context, string, string) error { return nil }

func TestHandle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTxManager()
	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Courses.Create(ctx, domain.Course{CourseCode: "CS101", Department: "CSE", Semester: 1})
	}))
	cache := &recordingCache{}
	svc := attendance.NewService(store, cache)

	_, err := svc.Reconcile(ctx, attendance.Submission{
		CourseCode: "CS101", Department: "CSE", Date: "2024-01-10", TimeSlot: "10:00-12:00", Absentees: []string{"A001"},
	})
	require.NoError(t, err)

	msg, err := queue.NewMessage(queue.TypeReconciled, domain.ReconciledEvent{CourseCode: "CS101", Department: "CSE"})
	require.NoError(t, err)
	handle(ctx, svc, msg)

	require.Len(t, cache.set, 1)
	assert.Equal(t, 1, cache.set[0].TotalClasses)
	assert.Len(t, cache.set[0].Students, 1)

	// ignored or unusable messages leave the cache alone
	handle(ctx, svc, queue.Message{Type: "other"})
	handle(ctx, svc, queue.Message{Type: queue.TypeReconciled, Body: []byte("{")})
	unknown, _ := queue.NewMessage(queue.TypeReconciled, domain.ReconciledEvent{CourseCode: "NOPE", Department: "CSE"})
	handle(ctx, svc, unknown)
	assert.Len(t, cache.set, 1)
}
