/*
Package email sends the rendered monthly report through whichever
provider is configured: Amazon SES, SendGrid, or Mailgun. Authored fresh
per src/cmd/notify's usage of email.SendMessage/email.Provider — the
teacher's src/cmd/send-email calls into an src/pkg/email with this exact
signature, but the package itself was not part of the retrieved file set,
so its body is grounded on each SDK's own quickstart idiom instead and
wrapped in the teacher's xerr/tl conventions.
*/
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/mailgun/mailgun-go/v4"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Provider names one of the three supported transports, matching the
// -provider flag on src/cmd/notify.
type Provider string

const (
	ProviderSES      Provider = "ses"
	ProviderSendgrid Provider = "sendgrid"
	ProviderMailgun  Provider = "mailgun"
)

// Attachment is an optional file to carry alongside the email body.
// src/cmd/notify never populates this today — the monthly report is
// always inlined as HTML — but report.Build's output could grow a PDF
// export later, so SendMessage accepts it now rather than changing its
// signature twice.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

const sendTimeout = 30 * time.Second

// SendMessage dispatches subject/text/html from sender to recipients
// through provider. When sendEmails is nil or *sendEmails is false, the
// message is logged but never actually sent — the dry-run mode behind
// the -dry-run flag of src/cmd/notify's send-report subprogram.
func SendMessage(provider Provider, sendEmails *bool, sender string, recipients []string, subject, text, html string, attachments []Attachment) *xerr.Error {
	if len(recipients) == 0 {
		return xerr.NewError(fmt.Errorf("no recipients given"), "send email", subject)
	}

	if sendEmails == nil || !*sendEmails {
		tl.Log(tl.Notice, palette.Purple, "Dry run: would send '%s' from '%s' to '%v' via '%s'", subject, sender, recipients, provider)
		return nil
	}

	switch provider {
	case ProviderSES:
		return sendViaSES(sender, recipients, subject, text, html, attachments)
	case ProviderSendgrid:
		return sendViaSendgrid(sender, recipients, subject, text, html, attachments)
	case ProviderMailgun:
		return sendViaMailgun(sender, recipients, subject, text, html, attachments)
	default:
		return xerr.NewError(fmt.Errorf("unknown email provider"), "unsupported provider", string(provider))
	}
}

func sendViaSES(sender string, recipients []string, subject, text, html string, attachments []Attachment) *xerr.Error {
	if len(attachments) > 0 {
		tl.Log(tl.Warning, palette.YellowBold, "%s provider does not support attachments in this implementation, dropping '%d'", "ses", len(attachments))
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	awsCfg, loadErr := awsconfig.LoadDefaultConfig(ctx)
	if loadErr != nil {
		return xerr.NewError(loadErr, "load AWS SDK config", "ses")
	}

	client := sesv2.NewFromConfig(awsCfg)
	_, sendErr := client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(text)},
					Html: &types.Content{Data: aws.String(html)},
				},
			},
		},
	})
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via SES", subject)
	}

	tl.Log(tl.Info1, palette.Green, "Sent '%s' to '%d' recipient(s) via '%s'", subject, len(recipients), "ses")
	return nil
}

func sendViaSendgrid(sender string, recipients []string, subject, text, html string, attachments []Attachment) *xerr.Error {
	from := mail.NewEmail("", sender)
	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, recipient := range recipients {
		personalization.AddTos(mail.NewEmail("", recipient))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", text))
	message.AddContent(mail.NewContent("text/html", html))

	for _, a := range attachments {
		attachment := mail.NewAttachment()
		attachment.SetFilename(a.Filename)
		attachment.SetType(a.ContentType)
		attachment.SetContent(string(a.Content))
		message.AddAttachment(attachment)
	}

	client := sendgrid.NewSendClient(sendgridAPIKey())
	response, sendErr := client.Send(message)
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via SendGrid", subject)
	}
	if response.StatusCode >= 300 {
		return xerr.NewError(fmt.Errorf("sendgrid responded with status %d: %s", response.StatusCode, response.Body), "send email via SendGrid", subject)
	}

	tl.Log(tl.Info1, palette.Green, "Sent '%s' to '%d' recipient(s) via '%s'", subject, len(recipients), "sendgrid")
	return nil
}

func sendViaMailgun(sender string, recipients []string, subject, text, html string, attachments []Attachment) *xerr.Error {
	mg := mailgun.NewMailgun(mailgunDomain(), mailgunAPIKey())

	message := mg.NewMessage(sender, subject, text, recipients...)
	message.SetHTML(html)
	for _, a := range attachments {
		message.AddBufferAttachment(a.Filename, a.Content)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, _, sendErr := mg.Send(ctx, message)
	if sendErr != nil {
		return xerr.NewError(sendErr, "send email via Mailgun", subject)
	}

	tl.Log(tl.Info1, palette.Green, "Sent '%s' to '%d' recipient(s) via '%s'", subject, len(recipients), "mailgun")
	return nil
}
