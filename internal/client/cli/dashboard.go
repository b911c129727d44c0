package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ministry/internal/client/services"
	"github.com/dmitrijs2005/ministry/internal/client/session"
)

// Dashboard is the protected view. Opening it verifies the session once;
// the view renders only when verification succeeds.
func (a *App) Dashboard(ctx context.Context) error {
	ctx, unmount := context.WithCancel(ctx)
	defer unmount()

	switch a.boot.Verify(ctx) {
	case services.OutcomeVerified:
		sess, gen := a.store.Snapshot()
		if sess == nil {
			return nil
		}
		fmt.Fprintf(a.out, "Welcome, %s (%s)\n", sess.User.Name, sess.User.Role)
		if !sess.Onboarded {
			fmt.Fprintln(a.out, "New here? Pick a section below to get started.")
			sess.Onboarded = true
			a.store.CompareAndSet(gen, session.EventUpdated, sess)
		}
		fmt.Fprintln(a.out, "Courses | Prayer requests | Booking | Testimonies | Sermons")

	case services.OutcomeRedirect:
		fmt.Fprintln(a.out, "Please log in to continue.")

	case services.OutcomeCancelled:
	}
	return nil
}
