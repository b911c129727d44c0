package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ministry/internal/client/client"
	"github.com/dmitrijs2005/ministry/internal/client/session"
)

// Outcome is the result of verifying the cached session.
type Outcome int

const (
	// OutcomeVerified means the session is live and the view may render.
	OutcomeVerified Outcome = iota
	// OutcomeRedirect means the session is gone and the caller should send
	// the user to the sign-in entry point.
	OutcomeRedirect
	// OutcomeCancelled means the view went away or the session changed while
	// verifying; the result was discarded and the store left untouched.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Bootstrapper checks the cached session against the server each time a
// protected view is opened.
type Bootstrapper struct {
	client client.Client
	store  *session.Store
}

func NewBootstrapper(c client.Client, store *session.Store) *Bootstrapper {
	return &Bootstrapper{client: c, store: store}
}

// Verify runs once per view. Without a cached user and token it redirects
// without touching the network. Otherwise it calls Me; on 401 it refreshes
// exactly once and retries Me once with the new token. Any other failure
// evicts the session. Results are discarded if ctx is cancelled or the store
// changed underneath.
func (b *Bootstrapper) Verify(ctx context.Context) Outcome {
	sess, gen := b.store.Snapshot()

	if sess == nil || sess.AccessToken == "" || sess.User.Email == "" {
		if sess != nil && !b.store.CompareAndClear(gen, session.EventEvicted) {
			return OutcomeCancelled
		}
		return OutcomeRedirect
	}

	_, err := b.client.Me(ctx, sess.AccessToken)
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	if err == nil {
		return b.verified(gen)
	}
	if !errors.Is(err, client.ErrUnauthorized) {
		return b.evict(gen)
	}

	token, err := b.client.Refresh(ctx)
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	if err != nil {
		return b.evict(gen)
	}

	next := *sess
	next.AccessToken = token
	if !b.store.CompareAndSet(gen, session.EventRefresh, &next) {
		return OutcomeCancelled
	}
	gen++

	_, err = b.client.Me(ctx, token)
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	if err != nil {
		return b.evict(gen)
	}
	return b.verified(gen)
}

func (b *Bootstrapper) verified(gen uint64) Outcome {
	if b.store.Generation() != gen {
		return OutcomeCancelled
	}
	return OutcomeVerified
}

func (b *Bootstrapper) evict(gen uint64) Outcome {
	if !b.store.CompareAndClear(gen, session.EventEvicted) {
		return OutcomeCancelled
	}
	return OutcomeRedirect
}
