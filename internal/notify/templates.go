package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/epost-hub/backend/internal/models"
)

type eventData struct {
	Event  *models.Event
	Name   string
	Reason string
}

type questionData struct {
	Question *models.Question
}

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body)),
	}
}

var templates = map[string]emailTemplate{
	models.EmailTypeEventApproved: mustTemplate(
		`Your event "{{.Event.Title}}" has been approved`,
		`Hello {{.Name}},

Good news! Your event "{{.Event.Title}}" has been approved and is now listed on the Veteran e-Post Hub.
{{if .Event.StartDate}}
Starts: {{.Event.StartDate.Format "January 2, 2006"}}{{if .Event.StartTime}} at {{.Event.StartTime}}{{end}}
{{end}}{{if .Event.Address}}Location: {{.Event.Address}}
{{end}}
Thank you for sharing it with the community.
`),
	models.EmailTypeEventDenied: mustTemplate(
		`Your event "{{.Event.Title}}" was not approved`,
		`Hello {{.Name}},

Your event "{{.Event.Title}}" was not approved for the Veteran e-Post Hub.

Reason: {{.Reason}}

You can edit the event and submit it again.
`),
	models.EmailTypeEventModified: mustTemplate(
		`Your event "{{.Event.Title}}" was updated`,
		`Hello {{.Name}},

Your event "{{.Event.Title}}" was modified. Current status: {{.Event.Status}}.
{{if .Event.Address}}Location: {{.Event.Address}}
{{end}}
If you did not make this change, please contact an administrator.
`),
	models.EmailTypePrivateQuestion: mustTemplate(
		`New private question from {{.Question.Username}}`,
		`A private question was submitted on the Veteran e-Post Hub.

From: {{.Question.Username}} <{{.Question.UserEmail}}>
Posted: {{.Question.DatePosted.Format "January 2, 2006 15:04 MST"}}

{{.Question.Text}}

Reply to the sender directly, then resolve the question in the admin panel.
`),
}

// render produces the subject and plain-text body for an email type.
func render(emailType string, data interface{}) (string, string, error) {
	tpl, ok := templates[emailType]
	if !ok {
		return "", "", fmt.Errorf("no template for email type %q", emailType)
	}
	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", emailType, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", emailType, err)
	}
	return subject.String(), body.String(), nil
}
