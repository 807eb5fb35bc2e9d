package outreach

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/domain/activity"
	"founder-connect/internal/infrastructure/events"
	mailer "founder-connect/internal/infrastructure/mail"
	collab "founder-connect/internal/infrastructure/outreach"
	"founder-connect/internal/metrics"
	"founder-connect/internal/worker"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

// fallbackContacts is used when the collaborator is unavailable or finds
// nobody.
var fallbackContacts = []string{
	"hello@northstar-ventures.example",
	"partners@seedlight.example",
	"deals@bluepeak.capital.example",
	"founders@launchpad-angels.example",
	"team@harborfund.example",
	"invest@greenfield-vc.example",
	"pitch@summitseed.example",
	"contact@ironbridge.partners.example",
	"intro@openlane.vc.example",
	"apply@catalyst-collective.example",
}

type Request struct {
	UserID    string
	Topic     string
	Summary   string
	Max       int
	FromName  string
	FromEmail string
}

type Failure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type Report struct {
	Topic            string    `json:"topic"`
	Subject          string    `json:"subject"`
	Recipients       int       `json:"recipients"`
	Sent             []string  `json:"sent"`
	Failed           []Failure `json:"failed"`
	FallbackContacts bool      `json:"fallbackContacts"`
	FallbackTemplate bool      `json:"fallbackTemplate"`
}

type Options struct {
	Workers    int
	RatePerSec float64
}

type Service struct {
	collaborator collab.Collaborator
	mailer       mailer.Mailer
	publisher    events.Publisher
	log          activity.Log
	opts         Options
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(c collab.Collaborator, m mailer.Mailer, publisher events.Publisher, log activity.Log, opts Options, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{
		collaborator: c,
		mailer:       m,
		publisher:    publisher,
		log:          log,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

// Run finds contacts for the topic, drafts one email and sends it to every
// contact. Collaborator failures fall back to sample contacts and a template;
// only individual send failures are reported.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Summary = strings.TrimSpace(req.Summary)
	if req.Topic == "" {
		return Report{}, ErrInvalidInput
	}
	req.Max = clampMax(req.Max)
	req.FromName = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(req.FromName))
	req.FromEmail = replyAddress(req.FromEmail)

	log := s.logger.With(zap.String("topic", req.Topic), zap.Int("max", req.Max))
	rep := Report{Topic: req.Topic, Sent: []string{}, Failed: []Failure{}}

	contacts := s.searchContacts(ctx, req, log)
	if len(contacts) == 0 {
		contacts = fallbackFor(req.Max)
		rep.FallbackContacts = true
	}

	draft, ok := s.draft(ctx, req, log)
	if !ok {
		draft = fallbackDraft(req)
		rep.FallbackTemplate = true
	}
	rep.Subject = draft.Subject
	rep.Recipients = len(contacts)

	tasks := make([]worker.Task, len(contacts))
	for i, to := range contacts {
		to := to
		tasks[i] = func(ctx context.Context) error {
			return s.mailer.Send(ctx, mailer.Message{
				To:        []string{to},
				Subject:   draft.Subject,
				Body:      draft.Body,
				FromName:  req.FromName,
				FromEmail: req.FromEmail,
				ReplyTo:   req.FromEmail,
			})
		}
	}

	for i, r := range worker.RunAll(ctx, s.opts.Workers, s.opts.RatePerSec, tasks) {
		if r.Err != nil {
			rep.Failed = append(rep.Failed, Failure{Email: contacts[i], Error: r.Err.Error()})
			continue
		}
		rep.Sent = append(rep.Sent, contacts[i])
	}

	metrics.ObserveOutreach(len(rep.Sent), len(rep.Failed))
	log.Info("outreach finished",
		zap.Int("sent", len(rep.Sent)),
		zap.Int("failed", len(rep.Failed)),
		zap.Bool("fallback_contacts", rep.FallbackContacts),
		zap.Bool("fallback_template", rep.FallbackTemplate),
	)
	s.record(ctx, req, rep)
	return rep, nil
}

func (s *Service) searchContacts(ctx context.Context, req Request, log *zap.Logger) []string {
	if s.collaborator == nil {
		return nil
	}
	found, err := s.collaborator.SearchEmails(ctx, req.Topic, req.Max)
	if err != nil {
		log.Warn("outreach contact search failed, using fallback contacts", zap.Error(err))
		return nil
	}
	return normalizeContacts(found, req.Max)
}

func (s *Service) draft(ctx context.Context, req Request, log *zap.Logger) (collab.Draft, bool) {
	if s.collaborator == nil {
		return collab.Draft{}, false
	}
	d, err := s.collaborator.DraftEmail(ctx, collab.DraftRequest{Topic: req.Topic, Summary: req.Summary, FromName: req.FromName})
	if err != nil {
		log.Warn("outreach draft failed, using fallback template", zap.Error(err))
		return collab.Draft{}, false
	}
	if strings.TrimSpace(d.Subject) == "" || strings.TrimSpace(d.Body) == "" {
		return collab.Draft{}, false
	}
	return d, true
}

func (s *Service) record(ctx context.Context, req Request, rep Report) {
	if s.log == nil || req.UserID == "" {
		return
	}
	err := s.log.AppendInteraction(ctx, activity.Interaction{
		UserID:    req.UserID,
		Kind:      activity.InteractionOutreach,
		Detail:    fmt.Sprintf("%s: sent %d, failed %d", req.Topic, len(rep.Sent), len(rep.Failed)),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("interaction log failed", zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.KeyOutreachCompleted, rep); err != nil {
		s.logger.Warn("outreach event publish failed", zap.Error(err))
	}
}

// normalizeContacts keeps valid, distinct addresses up to limit.
func normalizeContacts(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		addr, err := mail.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		key := strings.ToLower(addr.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr.Address)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// replyAddress returns the bare mailbox of raw, or "" when raw is not a
// single valid address.
func replyAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\r\n") {
		return ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return ""
	}
	return addr.Address
}

func fallbackFor(limit int) []string {
	if limit > len(fallbackContacts) {
		limit = len(fallbackContacts)
	}
	return append([]string{}, fallbackContacts[:limit]...)
}

func fallbackDraft(req Request) collab.Draft {
	from := strings.TrimSpace(req.FromName)
	if from == "" {
		from = "A founder"
	}
	summary := req.Summary
	if summary == "" {
		summary = "I am building something in this space and would value your perspective."
	}

	var b strings.Builder
	b.WriteString("Hi,\n\n")
	fmt.Fprintf(&b, "My name is %s and I am reaching out about %s.\n\n", from, req.Topic)
	b.WriteString(summary)
	b.WriteString("\n\nWould you be open to a short call in the coming weeks?\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s\n", from)

	return collab.Draft{
		Subject: fmt.Sprintf("%s: %s", from, req.Topic),
		Body:    b.String(),
	}
}

func clampMax(v int) int {
	switch {
	case v == 0:
		return config.DefaultOutreachMax
	case v < config.MinOutreachMax:
		return config.MinOutreachMax
	case v > config.MaxOutreachMax:
		return config.MaxOutreachMax
	default:
		return v
	}
}
