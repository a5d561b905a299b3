package ports

import "context"

// Mailer delivers the out-of-band messages the auth flows produce. Delivery
// content and transport are external collaborator concerns; the core only
// hands over the recipient and the plaintext token.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, token string) error
	SendPasswordResetEmail(ctx context.Context, to, name, token string) error
}
