package repository

import (
	"context"

	"github.com/trusttec/cart-service/internal/domain"
)

// CartStore is the persistence adapter for the cart's single durable storage
// key.
type CartStore interface {
	// Load reads the stored cart snapshot. An absent key, an unparseable
	// value, or a value that is not an array all load as an empty cart;
	// a parseable array is filtered down to its valid elements (partial
	// recovery). Corruption is healed in place and never surfaces as an
	// error; only backend I/O failures are returned.
	Load(ctx context.Context) (domain.Cart, error)

	// Save sanitizes the cart and writes the snapshot under the storage
	// key, then announces the change on the key's change channel. A write
	// failure is returned so the caller can surface a non-fatal
	// notification; in-memory state stays authoritative.
	Save(ctx context.Context, cart domain.Cart) error
}

// ChangeNotification is the message published on a storage key's change
// channel after every successful write. Old and New carry the raw stored
// values so observers can skip no-op writes; Origin identifies the writing
// store instance so it can ignore its own notifications, the way a browser
// tab never receives its own storage event.
type ChangeNotification struct {
	Origin string `json:"origin"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

// ChangeChannel derives the pub/sub channel name for a storage key.
func ChangeChannel(key string) string {
	return key + ":changes"
}
