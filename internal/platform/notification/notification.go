// Package notification queues outbound messages with a due time and delivers
// them from a background dispatcher.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// NotificationType represents the channel used to deliver a notification.
type NotificationType string

const (
	TypeEmail NotificationType = "email"
	TypeSMS   NotificationType = "sms"
	TypePush  NotificationType = "push"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrNoRecipient          = errors.New("notification has no recipient")
)

// Notification is a single outbound message. SendAt is the earliest time the
// dispatcher may deliver it.
type Notification struct {
	ID           string            `json:"id"`
	Type         NotificationType  `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	SendAt       time.Time         `json:"send_at"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Attempts     int               `json:"attempts"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Template defines a reusable notification template.
type Template struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Subject string           `json:"subject"`
	Body    string           `json:"body"`
	Type    NotificationType `json:"type"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range builtInTemplates {
		e.RegisterTemplate(t)
	}
	return e
}

var builtInTemplates = []Template{
	{
		ID:      "prenatal-reminder",
		Name:    "Prenatal Appointment Reminder",
		Subject: "Reminder: prenatal appointment on {{date}}",
		Body:    "You have a prenatal appointment on {{date}} at {{time}} ({{reason}}). Please contact the clinic if you need to reschedule.",
		Type:    TypeSMS,
	},
	{
		ID:      "appointment-rescheduled",
		Name:    "Appointment Rescheduled",
		Subject: "Your appointment has moved to {{date}}",
		Body:    "Your appointment is now on {{date}} at {{time}}.",
		Type:    TypeSMS,
	},
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Lookup returns a copy of the template.
func (e *TemplateEngine) Lookup(templateID string) (Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[templateID]
	if !ok {
		return Template{}, false
	}
	return *t, true
}

// Render performs {{key}} replacement on the template's subject and body.
// Placeholders without a value in data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	t, ok := e.Lookup(templateID)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}
