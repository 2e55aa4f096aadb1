package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"projecthub/internal/domain"
)

const sesCharset = "UTF-8"

// SESConfig carries static AWS SES credentials.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// MailerConfig selects and configures the outbound email transport.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer builds the transport named by Provider: "ses" sends through AWS
// SES, anything else (including "noop") only logs.
func NewMailer(cfg MailerConfig) (domain.Mailer, error) {
	if cfg.Provider != "ses" {
		if cfg.Provider != "noop" {
			slog.Warn("unknown email provider, emails will only be logged", "provider", cfg.Provider)
		}
		return &noopMailer{}, nil
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, "")
	client := ses.NewFromConfig(aws.Config{
		Region:      cfg.SES.Region,
		Credentials: aws.NewCredentialsCache(creds),
	})
	return &sesMailer{client: client, fromAddress: cfg.FromAddress, fromName: cfg.FromName}, nil
}

type sesMailer struct {
	client      *ses.Client
	fromAddress string
	fromName    string
}

func sesContent(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String(sesCharset)}
}

func (s *sesMailer) Send(to, subject, html, text string) error {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	body := &types.Body{}
	if html != "" {
		body.Html = sesContent(html)
	}
	if text != "" {
		body.Text = sesContent(text)
	}
	out, err := s.client.SendEmail(context.Background(), &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message:     &types.Message{Subject: sesContent(subject), Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via ses: %w", err)
	}
	slog.Debug("email sent", "to", to, "message_id", aws.ToString(out.MessageId))
	return nil
}

type noopMailer struct{}

func (n *noopMailer) Send(to, subject, html, text string) error {
	slog.Info("email suppressed (noop mailer)", "to", to, "subject", subject)
	return nil
}
