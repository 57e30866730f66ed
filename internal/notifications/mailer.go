package notifications

import "context"

// Attachment is a file carried by an outbound email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outbound email.
type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	PlainBody   string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer delivers a single message. Implementations must be safe for
// concurrent use; the dispatcher fans messages out in parallel.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
