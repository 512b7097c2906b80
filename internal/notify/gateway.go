// Package notify delivers SMS to donors and requesters. The Gateway interface
// hides the provider; the Fast2SMS client is the production implementation, a
// redis-backed cooldown wrapper suppresses repeat sends, and a logging
// gateway serves development setups without an API key.
package notify

import "context"

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway delivers one SMS. Implementations must be safe for concurrent use;
// the emergency fan-out calls Send from multiple goroutines.
type Gateway interface {
	Send(ctx context.Context, to, message string) error
}
