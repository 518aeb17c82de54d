// Package notifier delivers job-match alerts: an email and an in-app record
// for the candidate, plus an audit record for every admin.
package notifier

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/model"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type NotificationStore interface {
	BulkCreate(ctx context.Context, items []model.Notification) error
}

type AdminLister interface {
	ListAdmins(ctx context.Context) ([]model.User, error)
}

// Guard reports whether a candidate has not been told about a job yet and
// records that they now have.
type Guard interface {
	FirstNotice(ctx context.Context, jobID, userID uuid.UUID) (bool, error)
}

// Recipient is a candidate that cleared the similarity threshold.
type Recipient struct {
	UserID     uuid.UUID
	Email      string
	Similarity float64
}

// Result counts what one NotifyMatches call did.
type Result struct {
	Notified         int
	SkippedDuplicate int
	RecordFailures   int
}

type JobMatchNotifier struct {
	mailer      Mailer
	store       NotificationStore
	admins      AdminLister
	guard       Guard
	mailTimeout time.Duration
	log         *zap.Logger

	inflight sync.WaitGroup
}

// New builds a notifier. guard may be nil, which disables dedup.
func New(mailer Mailer, store NotificationStore, admins AdminLister, guard Guard, log *zap.Logger) *JobMatchNotifier {
	return &JobMatchNotifier{
		mailer:      mailer,
		store:       store,
		admins:      admins,
		guard:       guard,
		mailTimeout: 30 * time.Second,
		log:         logger.OrNop(log),
	}
}

// Percent renders a similarity in [0,1] as a percentage rounded to one decimal.
func Percent(similarity float64) float64 {
	return math.Round(similarity*1000) / 10
}

// NotifyMatches alerts every recipient about job. Delivery problems are
// logged and counted, never returned: a failed alert must not fail matching.
func (n *JobMatchNotifier) NotifyMatches(ctx context.Context, job *model.Job, recipients []Recipient) Result {
	var res Result
	if len(recipients) == 0 {
		return res
	}
	log := n.log.With(zap.String(logger.FieldJobID, job.ID.String()))

	admins, err := n.admins.ListAdmins(ctx)
	if err != nil {
		log.Error("failed to load admins, audit records skipped", zap.Error(err))
	}

	for _, r := range recipients {
		if n.guard != nil {
			first, err := n.guard.FirstNotice(ctx, job.ID, r.UserID)
			if err != nil {
				log.Warn("dedup guard unavailable, notifying anyway", zap.Error(err))
			} else if !first {
				res.SkippedDuplicate++
				continue
			}
		}

		n.sendEmail(job, r)
		if err := n.store.BulkCreate(ctx, records(job, r, admins)); err != nil {
			res.RecordFailures++
			log.Error("failed to create job match notifications",
				zap.String("user_id", r.UserID.String()), zap.Error(err))
		}
		res.Notified++
	}
	return res
}

// Wait blocks until in-flight emails have finished.
func (n *JobMatchNotifier) Wait() {
	n.inflight.Wait()
}

func (n *JobMatchNotifier) sendEmail(job *model.Job, r Recipient) {
	if r.Email == "" {
		return
	}
	subject := fmt.Sprintf("New job match: %s", job.Title)
	body := fmt.Sprintf("Hi,\n\nA new job matches your profile (%.1f%% match): %s.\n\nLog in to view the details and apply.\n",
		Percent(r.Similarity), job.Title)

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.mailTimeout)
		defer cancel()
		if err := n.mailer.Send(ctx, r.Email, subject, body); err != nil {
			n.log.Warn("job match email failed",
				zap.String(logger.FieldJobID, job.ID.String()),
				zap.String("to", r.Email),
				zap.Error(err))
		}
	}()
}

func records(job *model.Job, r Recipient, admins []model.User) []model.Notification {
	pct := Percent(r.Similarity)
	out := make([]model.Notification, 0, 1+len(admins))
	out = append(out, model.Notification{
		UserID:    r.UserID,
		UserRole:  model.RoleJobSeeker,
		Title:     "New Job Match Found",
		Message:   fmt.Sprintf("A job matching your profile (%s%% match) is available: %s", formatPct(pct), job.Title),
		Type:      model.NotificationJobMatchFound,
		RelatedID: job.ID,
	})
	for _, a := range admins {
		out = append(out, model.Notification{
			UserID:    a.ID,
			UserRole:  model.RoleAdmin,
			Title:     "Job Match Email Sent",
			Message:   fmt.Sprintf("Job match email sent to %s for job '%s' (%s%% match).", r.Email, job.Title, formatPct(pct)),
			Type:      model.NotificationJobMatchSent,
			RelatedID: job.ID,
		})
	}
	return out
}

func formatPct(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
