// Package notification delivers best-effort outbound notices for bed
// lifecycle events (discharge summaries, housekeeping requests, transfer
// notices, follow-up reminders). Delivery runs outside the clinical
// transaction: a failed notice is retried and logged, never surfaced as
// an operation failure.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Type is the delivery channel for a notice.
type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
)

// Notice is a single outbound notification.
type Notice struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Sender delivers a rendered notice over some channel.
type Sender interface {
	Send(ctx context.Context, n *Notice) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Type    Type   `json:"type"`
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in bed
// lifecycle templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "discharge-summary",
			Name:    "Discharge Summary",
			Subject: "Discharge confirmation for patient {{patient_id}}",
			Body:    "Patient {{patient_id}} was discharged from bed {{bed_number}} on {{date}}. Discharge type: {{discharge_type}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "housekeeping-request",
			Name:    "Housekeeping Request",
			Subject: "Bed {{bed_number}} needs cleaning",
			Body:    "Bed {{bed_number}} was vacated on {{date}} and is awaiting housekeeping before returning to the available pool.",
			Type:    TypeEmail,
		},
		{
			ID:      "transfer-notice",
			Name:    "Transfer Notice",
			Subject: "Patient {{patient_id}} transferred",
			Body:    "Patient {{patient_id}} was moved from bed {{from_bed}} to bed {{to_bed}} on {{date}}. Reason: {{reason}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "followup-reminder",
			Name:    "Follow-up Reminder",
			Subject: "Follow-up appointment scheduled for {{patient_id}}",
			Body:    "A follow-up appointment for patient {{patient_id}} is scheduled on {{followup_date}}. Instructions: {{instructions}}",
			Type:    TypeEmail,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from
// data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Notifier renders and dispatches notices with bounded retries. It keeps
// a capped in-memory log of recent notices for inspection.
type Notifier struct {
	engine     *TemplateEngine
	sender     Sender
	maxRetries int
	logger     zerolog.Logger

	mu      sync.Mutex
	history []*Notice
}

const historyCap = 500

func NewNotifier(engine *TemplateEngine, sender Sender, maxRetries int, logger zerolog.Logger) *Notifier {
	return &Notifier{
		engine:     engine,
		sender:     sender,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Notify renders templateID with data and delivers it to recipient.
// Failures are retried up to maxRetries and then logged; Notify never
// propagates a delivery error to the caller.
func (n *Notifier) Notify(ctx context.Context, templateID, recipient string, data map[string]string) {
	notice := &Notice{
		ID:           uuid.New().String(),
		Type:         TypeEmail,
		Recipient:    recipient,
		TemplateID:   templateID,
		TemplateData: data,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}

	subject, body, err := n.engine.Render(templateID, data)
	if err != nil {
		notice.Status = "failed"
		notice.Error = err.Error()
		n.record(notice)
		n.logger.Error().Err(err).Str("template", templateID).Msg("notification render failed")
		return
	}
	notice.Subject = subject
	notice.Body = body

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		notice.Attempts = attempt + 1
		if err = n.sender.Send(ctx, notice); err == nil {
			now := time.Now().UTC()
			notice.Status = "sent"
			notice.SentAt = &now
			n.record(notice)
			return
		}
	}

	notice.Status = "failed"
	notice.Error = err.Error()
	n.record(notice)
	n.logger.Error().
		Err(err).
		Str("template", templateID).
		Str("recipient", recipient).
		Int("attempts", notice.Attempts).
		Msg("notification delivery failed")
}

func (n *Notifier) record(notice *Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, notice)
	if len(n.history) > historyCap {
		n.history = n.history[len(n.history)-historyCap:]
	}
}

// History returns a copy of the recent notice log, newest last.
func (n *Notifier) History() []*Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Notice, len(n.history))
	copy(out, n.history)
	return out
}

// LogSender writes notices to the log instead of delivering them. Used
// in development and as the default when no real channel is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, n *Notice) error {
	s.Logger.Info().
		Str("type", string(n.Type)).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Msg("notification")
	return nil
}
