package domain

import "context"

// Mailer is the outbound email transport port.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer produces subject and html/text bodies for a named
// email template.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ProjectInvitationEmailData feeds the project invitation template.
type ProjectInvitationEmailData struct {
	Email       string
	InviterName string
	ProjectName string
	Code        string
	ExpiresDays int
}

// EmailService sends domain-level notification emails.
type EmailService interface {
	SendProjectInvitation(ctx context.Context, data *ProjectInvitationEmailData) error
}
