package api

import "context"

// Bootstrap restores a prior session before any feature code issues
// authenticated requests. It hydrates the credential store from the durable
// mirror and, when that yields nothing, attempts one opportunistic refresh.
// Absence of a prior session is an expected outcome, not an error: a failed
// opportunistic refresh leaves the client anonymous and tears nothing down.
// Returns whether the client ended up with a credential.
func (c *Client) Bootstrap(ctx context.Context) bool {
	if _, ok := c.creds.Hydrate(); ok {
		return true
	}
	if err := c.refresher.refresh(ctx); err != nil {
		return false
	}
	_, ok := c.creds.Get()
	return ok
}
