// Package queue defines the email-confirmation event exchanged over the
// message broker, plus the publisher and consumer on either side of it.
package queue

// EmailConfirmEvent is published when an account needs a confirmation email.
// It carries everything a delivery worker needs to compose the message
// without querying the primary database. ConfirmURL already embeds the
// single-purpose confirmation token.
type EmailConfirmEvent struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	ConfirmURL string `json:"confirm_url"`
	QueuedAt   string `json:"queued_at"`
}
