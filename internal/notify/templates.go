package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	TemplateOTP       = "otp"
	TemplateTaskEvent = "task_event"
)

type TaskEvent string

const (
	TaskCreated TaskEvent = "Created"
	TaskUpdated TaskEvent = "Updated"
	TaskDeleted TaskEvent = "Deleted"
)

type OTPData struct {
	Code     string
	ValidFor string
}

func NewOTPData(code string, ttl time.Duration) OTPData {
	return OTPData{Code: code, ValidFor: humanDuration(ttl)}
}

type TaskEventData struct {
	Event       TaskEvent
	Name        string
	Description string
	Priority    string
	DueDate     string
	Completed   bool
}

func (d TaskEventData) Verb() string {
	return strings.ToLower(string(d.Event))
}

func NewTaskEventData(event TaskEvent, task *models.Task) TaskEventData {
	return TaskEventData{
		Event:       event,
		Name:        task.Name,
		Description: deref(task.Description),
		Priority:    deref(task.Priority),
		DueDate:     deref(task.DueDate),
		Completed:   task.Completed,
	}
}

// Render executes the named template into a message for to.
// Subject and plain text use text/template, the HTML part html/template.
func Render(to, name string, data any) (Message, error) {
	file := "templates/" + name + ".tmpl"

	textTmpl, err := texttemplate.ParseFS(templateFS, file)
	if err != nil {
		return Message{}, fmt.Errorf("parse template %s: %w", name, err)
	}
	htmlTmpl, err := htmltemplate.ParseFS(templateFS, file)
	if err != nil {
		return Message{}, fmt.Errorf("parse template %s: %w", name, err)
	}

	var subject, plain, html bytes.Buffer
	if err := textTmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := textTmpl.ExecuteTemplate(&plain, "plainBody", data); err != nil {
		return Message{}, fmt.Errorf("render %s plain body: %w", name, err)
	}
	if err := htmlTmpl.ExecuteTemplate(&html, "htmlBody", data); err != nil {
		return Message{}, fmt.Errorf("render %s html body: %w", name, err)
	}

	return Message{
		To:        to,
		Subject:   strings.TrimSpace(subject.String()),
		PlainBody: strings.TrimSpace(plain.String()),
		HTMLBody:  strings.TrimSpace(html.String()),
	}, nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
