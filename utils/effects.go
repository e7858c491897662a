package utils

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tasknest/models"
)

// ActivityStore persists audit entries. Satisfied by gormActivityStore.
type ActivityStore interface {
	Append(entry *models.ActivityLog) error
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	Save(n *models.Notification) error
	Recipient(userID uint) (*models.User, error)
}

// Effects dispatches fire-and-forget side effects: activity logging,
// notifications, notification emails. Failures are reported to logrus and
// Sentry but structurally cannot reach the caller; there is no error return
// on any dispatch method.
type Effects struct {
	activities    ActivityStore
	notifications NotificationStore
	mailer        *Mailer // nil disables email delivery
	logger        *logrus.Logger
}

func NewEffects(db *gorm.DB, mailer *Mailer, logger *logrus.Logger) *Effects {
	return &Effects{
		activities:    &gormActivityStore{db: db},
		notifications: &gormNotificationStore{db: db},
		mailer:        mailer,
		logger:        logger,
	}
}

// NewEffectsWithStores wires explicit stores, used by tests.
func NewEffectsWithStores(a ActivityStore, n NotificationStore, logger *logrus.Logger) *Effects {
	return &Effects{activities: a, notifications: n, logger: logger}
}

// LogActivity appends an audit entry. workspaceID and taskID may be nil.
func (e *Effects) LogActivity(userID uint, workspaceID, taskID *uint, action, details string) {
	e.dispatch("activity", func() error {
		return e.activities.Append(&models.ActivityLog{
			UserID:      userID,
			WorkspaceID: workspaceID,
			TaskID:      taskID,
			Action:      action,
			Details:     details,
		})
	})
}

// Notify records an in-app notification and, when a mailer is configured,
// sends a copy by email.
func (e *Effects) Notify(userID uint, message, ntype, link string) {
	e.dispatch("notification", func() error {
		err := e.notifications.Save(&models.Notification{
			UserID:  userID,
			Message: message,
			Type:    ntype,
			Link:    link,
		})
		if err != nil {
			return err
		}
		if e.mailer != nil {
			// Email failure is its own best-effort branch; a failed
			// recipient lookup is reported the same way.
			user, rerr := e.notifications.Recipient(userID)
			if rerr != nil {
				e.report("notification email", rerr)
			} else if merr := e.mailer.SendNotification(user.Email, message, link); merr != nil {
				e.report("notification email", merr)
			}
		}
		return nil
	})
}

// dispatch runs fn, converting any error or panic into a server-side report.
func (e *Effects) dispatch(kind string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.report(kind, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		e.report(kind, err)
	}
}

func (e *Effects) report(kind string, err error) {
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"effect": kind,
		}).WithError(err).Warn("side effect failed")
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("effect", kind)
		sentry.CaptureException(err)
	})
}

type gormActivityStore struct{ db *gorm.DB }

func (s *gormActivityStore) Append(entry *models.ActivityLog) error {
	return s.db.Create(entry).Error
}

type gormNotificationStore struct{ db *gorm.DB }

func (s *gormNotificationStore) Save(n *models.Notification) error {
	return s.db.Create(n).Error
}

func (s *gormNotificationStore) Recipient(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
