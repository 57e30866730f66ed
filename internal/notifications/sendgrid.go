package notifications

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// SendgridMailer delivers messages through the SendGrid v3 API.
type SendgridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendgridMailer(apiKey, fromEmail, fromName string) (*SendgridMailer, error) {
	if apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sendgrid api key is required")
	}
	if fromEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sender address is required")
	}
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)
	for _, att := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		attachment.SetDisposition("attachment")
		email.AddAttachment(attachment)
	}

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sendgrid send")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sendgrid rejected message: status %d", resp.StatusCode))
	}
	return nil
}
