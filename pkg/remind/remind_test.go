package remind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskbot/pkg/model"
	"github.com/harrisonrobin/taskbot/pkg/when"
)

var msk = time.FixedZone("MSK", 3*60*60)

// fakeStore behaves like the sheet: deleting a row shifts every following
// row up by one.
type fakeStore struct {
	rows    []model.Reminder
	listErr error
}

func (f *fakeStore) AppendReminder(_ context.Context, r model.Reminder) error {
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeStore) ListReminders(_ context.Context) ([]Row, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Row, len(f.rows))
	for i, r := range f.rows {
		out[i] = Row{Reminder: r, Index: i}
	}
	return out, nil
}

func (f *fakeStore) DeleteReminderRow(_ context.Context, index int) error {
	if index < 0 || index >= len(f.rows) {
		return errors.New("row index out of range")
	}
	f.rows = append(f.rows[:index], f.rows[index+1:]...)
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, _ int64, _ int, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func newManager(store *fakeStore, send *fakeSender, now time.Time) *Manager {
	m := New(store, send, msk)
	m.now = func() time.Time { return now }
	return m
}

func TestCreateResolvesWhenText(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, &fakeSender{}, now)

	r, err := m.Create(context.Background(), "task1", "+30m", 42, 7, "@vadim")
	require.NoError(t, err)

	assert.Len(t, r.ID, 8)
	assert.Equal(t, "task1", r.TaskID)
	assert.Equal(t, now.Add(30*time.Minute).Format(time.RFC3339), r.WhenISO)
	assert.Equal(t, int64(42), r.ChatID)
	assert.Equal(t, 7, r.ThreadID)
	require.Len(t, store.rows, 1)
}

func TestCreatePropagatesTimeParseError(t *testing.T) {
	store := &fakeStore{}
	m := newManager(store, &fakeSender{}, time.Now())

	_, err := m.Create(context.Background(), "task1", "когда-нибудь потом", 42, 0, "")
	require.ErrorIs(t, err, when.ErrTimeParse)
	assert.Empty(t, store.rows)
}

func TestPollDueFiresOnce(t *testing.T) {
	store := &fakeStore{}
	send := &fakeSender{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, send, now)

	_, err := m.Create(context.Background(), "soon", "+10m", 1, 0, "")
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "later", "+2d", 1, 0, "")
	require.NoError(t, err)

	due, err := m.PollDue(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].TaskID)

	require.NoError(t, m.DeliverAndClear(context.Background(), due[0], "ping"))
	assert.Equal(t, []string{"ping"}, send.sent)

	// Once cleared, the id is never polled again — at any later instant.
	due, err = m.PollDue(context.Background(), now.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "later", due[0].TaskID)
}

func TestDeliveryFailureLeavesRowForRetry(t *testing.T) {
	store := &fakeStore{}
	send := &fakeSender{err: errors.New("transport down")}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, send, now)

	_, err := m.Create(context.Background(), "task1", "+1m", 1, 0, "")
	require.NoError(t, err)

	due, err := m.PollDue(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.Error(t, m.DeliverAndClear(context.Background(), due[0], "ping"))
	assert.Len(t, store.rows, 1, "failed delivery must not delete the row")

	// The next poll retries the same reminder.
	due, err = m.PollDue(context.Background(), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDeliverAndClearSurvivesIndexShift(t *testing.T) {
	// Two due reminders: clearing the first shifts the second's row, the
	// manager must re-find it by id instead of trusting the stale index.
	store := &fakeStore{}
	send := &fakeSender{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, send, now)

	_, err := m.Create(context.Background(), "a", "+1m", 1, 0, "")
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "b", "+2m", 1, 0, "")
	require.NoError(t, err)

	due, err := m.PollDue(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)

	for _, r := range due {
		require.NoError(t, m.DeliverAndClear(context.Background(), r, r.TaskID))
	}
	assert.Empty(t, store.rows)
	assert.Equal(t, []string{"a", "b"}, send.sent)
}

func TestCancelByTaskDeletesBottomUp(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, &fakeSender{}, now)

	for _, taskID := range []string{"t1", "t2", "t1", "t1"} {
		_, err := m.Create(context.Background(), taskID, "+1h", 1, 0, "")
		require.NoError(t, err)
	}

	count, err := m.CancelByTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Exactly the t2 reminder survives; with top-down deletion the
	// reindexing store would have skipped the adjacent t1 rows.
	require.Len(t, store.rows, 1)
	assert.Equal(t, "t2", store.rows[0].TaskID)
}

func TestCancelByID(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, &fakeSender{}, now)

	r, err := m.Create(context.Background(), "t1", "+1h", 1, 0, "")
	require.NoError(t, err)

	ok, err := m.CancelByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.CancelByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, store.rows)
}

func TestPollDueSkipsMalformedTimestamps(t *testing.T) {
	store := &fakeStore{rows: []model.Reminder{
		{ID: "bad1", TaskID: "t", WhenISO: "yesterday-ish"},
		{ID: "ok1", TaskID: "t", WhenISO: time.Date(2025, 8, 1, 0, 0, 0, 0, msk).Format(time.RFC3339)},
		{ID: "empty", TaskID: "t"},
	}}
	m := newManager(store, &fakeSender{}, time.Now())

	due, err := m.PollDue(context.Background(), time.Date(2025, 9, 1, 0, 0, 0, 0, msk))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "ok1", due[0].ID)
}

func TestListByTask(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, msk)
	m := newManager(store, &fakeSender{}, now)

	_, err := m.Create(context.Background(), "t1", "+1h", 1, 0, "")
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "t2", "+1h", 1, 0, "")
	require.NoError(t, err)

	list, err := m.ListByTask(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].TaskID)
}
