package contacts

import "context"

// Directory answers whether a number belongs to a known contact.
// A nil error with false means the lookup succeeded and found nothing;
// a non-nil error means the lookup itself failed.
type Directory interface {
	IsKnownContact(ctx context.Context, number string) (bool, error)
}
