package mailer

import (
	"errors"

	"github.com/oksasatya/trainboard/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template or at least one of Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "welcome"
	Data     templates.Data `json:"data,omitempty"`
}

// NewWelcomeJob builds the job sent after a successful signup.
func NewWelcomeJob(email, name string) EmailJob {
	return EmailJob{
		To:       email,
		Template: templates.Welcome,
		Data:     templates.Data{Name: name, Email: email},
	}
}

// Render resolves the subject and bodies of the job, rendering its template if any.
func (j EmailJob) Render(appName string) (subject, text, html string, err error) {
	if j.To == "" {
		return "", "", "", errors.New("email job has no recipient")
	}
	if j.Template == "" {
		if j.Text == "" && j.HTML == "" {
			return "", "", "", errors.New("email job has no body")
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	data := j.Data
	if data.Email == "" {
		data.Email = j.To
	}
	if data.AppName == "" {
		data.AppName = appName
	}
	subject, text, html, err = templates.Render(j.Template, data)
	if err != nil {
		return "", "", "", err
	}
	if j.Subject != "" {
		subject = j.Subject
	}
	return subject, text, html, nil
}
