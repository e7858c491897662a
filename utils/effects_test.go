package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasknest/models"
)

type fakeActivityStore struct {
	entries []*models.ActivityLog
	err     error
}

func (f *fakeActivityStore) Append(entry *models.ActivityLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeNotificationStore struct {
	saved []*models.Notification
	err   error
}

func (f *fakeNotificationStore) Save(n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, n)
	return nil
}

func (f *fakeNotificationStore) Recipient(userID uint) (*models.User, error) {
	return nil, errors.New("no mailer in tests")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLogActivityAppends(t *testing.T) {
	store := &fakeActivityStore{}
	e := NewEffectsWithStores(store, &fakeNotificationStore{}, quietLogger())

	wsID := uint(3)
	e.LogActivity(1, &wsID, nil, "task_created", "created 'ship it'")

	require.Len(t, store.entries, 1)
	assert.Equal(t, uint(1), store.entries[0].UserID)
	assert.Equal(t, "task_created", store.entries[0].Action)
}

func TestEffectFailureNeverPropagates(t *testing.T) {
	e := NewEffectsWithStores(
		&fakeActivityStore{err: errors.New("db down")},
		&fakeNotificationStore{err: errors.New("db down")},
		quietLogger(),
	)

	// Neither call may panic or return anything to the caller.
	assert.NotPanics(t, func() {
		e.LogActivity(1, nil, nil, "task_deleted", "")
		e.Notify(1, "task updated", models.NotificationTaskUpdated, "")
	})
}

type panickyStore struct{}

func (panickyStore) Append(*models.ActivityLog) error { panic("boom") }

func TestEffectPanicIsRecovered(t *testing.T) {
	e := NewEffectsWithStores(panickyStore{}, &fakeNotificationStore{}, quietLogger())

	assert.NotPanics(t, func() {
		e.LogActivity(1, nil, nil, "x", "")
	})
}

func TestRecipientLookupFailureIsReported(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	e := NewEffectsWithStores(&fakeActivityStore{}, &fakeNotificationStore{}, logger)
	// With the email channel enabled, the failed recipient lookup must
	// surface server-side even though the caller never sees it.
	e.mailer = &Mailer{}

	e.Notify(4, "task due soon", models.NotificationTaskDue, "")

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, "notification email", hook.LastEntry().Data["effect"])
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNotifySaves(t *testing.T) {
	store := &fakeNotificationStore{}
	e := NewEffectsWithStores(&fakeActivityStore{}, store, quietLogger())

	e.Notify(9, "your task was updated", models.NotificationTaskUpdated, "/tasks/4")

	require.Len(t, store.saved, 1)
	assert.Equal(t, uint(9), store.saved[0].UserID)
	assert.False(t, store.saved[0].Read)
}
