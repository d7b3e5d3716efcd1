package queue

import "log"

// Notifier abstracts how a confirmation message reaches the user so the
// consumer does not care whether delivery is SMTP, a provider API or a log
// line during development.
type Notifier interface {
	Notify(to, subject, body string) error
}

// LogNotifier writes the message to the process log instead of sending
// mail. It is the default when no real transport is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (*LogNotifier) Notify(to, subject, body string) error {
	log.Printf("[email] to=%s subject=%q %s", to, subject, body)
	return nil
}
