package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-reviser/reviser-api/internal/models"
	"github.com/go-reviser/reviser-api/pkg/jobs"
	"github.com/go-reviser/reviser-api/pkg/mailer"
)

type mailTransport interface {
	Send(msg mailer.Message) error
}

// MailService dispatches outbound email through the background job queue so
// SMTP latency never sits on a request path.
type MailService struct {
	transport  mailTransport
	queue      *jobs.Queue
	supportBox string
	logger     *zap.Logger
}

// MailQueueConfig tunes the mail worker pool.
type MailQueueConfig struct {
	Workers    int
	MaxRetries int
	SupportBox string
}

// NewMailService builds the service and its queue. Call Start before use.
func NewMailService(transport mailTransport, cfg MailQueueConfig, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MailService{
		transport:  transport,
		supportBox: cfg.SupportBox,
		logger:     logger,
	}
	s.queue = jobs.NewQueue("mail", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the mail workers.
func (s *MailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the mail workers.
func (s *MailService) Stop() {
	s.queue.Stop()
}

// SendPasswordReset enqueues a reset-token email.
func (s *MailService) SendPasswordReset(email, name, token string) {
	body := fmt.Sprintf("Hi %s,\n\nUse the token below to reset your password. It expires in one hour.\n\n%s\n\nIf you did not request this, you can ignore this email.\n", name, token)
	s.enqueue(mailer.Message{
		To:      email,
		Subject: "Reset your password",
		Body:    body,
	})
}

// SendContactMessage forwards a contact-form submission to the support inbox.
func (s *MailService) SendContactMessage(req models.ContactRequest) {
	if s.supportBox == "" {
		s.logger.Warn("contact message dropped, no support inbox configured")
		return
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", req.Name, req.Email, req.Message)
	s.enqueue(mailer.Message{
		To:      s.supportBox,
		Subject: fmt.Sprintf("Contact form: %s", req.Name),
		Body:    body,
	})
}

func (s *MailService) enqueue(msg mailer.Message) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "mail",
		Payload: msg,
	})
	if err != nil {
		s.logger.Error("failed to enqueue mail", zap.String("to", msg.To), zap.Error(err))
	}
}

func (s *MailService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("unexpected mail payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.transport.Send(msg)
}
