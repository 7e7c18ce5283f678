package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a message. Delivery itself is outside this service; the
// default sender records what would be sent.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type LogSender struct {
	from string
	log  *logrus.Logger
}

func NewLogSender(from string, logger *logrus.Logger) *LogSender {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSender{from: from, log: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	s.log.WithFields(logrus.Fields{
		"from":        s.from,
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": names,
	}).Info("email sent")
	return nil
}

var _ Sender = (*LogSender)(nil)
