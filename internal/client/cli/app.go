package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/ministry/internal/client/client"
	"github.com/dmitrijs2005/ministry/internal/client/config"
	"github.com/dmitrijs2005/ministry/internal/client/services"
	"github.com/dmitrijs2005/ministry/internal/client/session"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// verifier is the part of services.Bootstrapper the dashboard needs.
type verifier interface {
	Verify(ctx context.Context) services.Outcome
}

type App struct {
	config      *config.Config
	authService services.AuthService
	boot        verifier
	store       *session.Store
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	var health *client.HealthChecker
	if c.HealthEndpointAddr != "" {
		hc, err := client.NewHealthChecker(c.HealthEndpointAddr)
		if err != nil {
			return nil, err
		}
		health = hc
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, health)
	if err != nil {
		return nil, err
	}

	store := session.NewStore()

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, store),
		boot:        services.NewBootstrapper(apiClient, store),
		store:       store,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	s, _ := a.store.Snapshot()
	return s != nil
}

func (a *App) getStatus() string {
	var parts []string
	if sess, _ := a.store.Snapshot(); sess != nil {
		parts = append(parts, sess.User.Email)
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Run subscribes to session events, starts the connectivity watcher and
// blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.authService.Close()

	unsubscribe := a.store.Subscribe(a.printEvent)
	defer unsubscribe()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Ministry CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) printEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventLogin:
		fmt.Fprintf(a.out, "[session] signed in as %s\n", ev.Session.User.Email)
	case session.EventRefresh:
		fmt.Fprintln(a.out, "[session] access token refreshed")
	case session.EventLogout:
		fmt.Fprintln(a.out, "[session] signed out")
	case session.EventEvicted:
		fmt.Fprintln(a.out, "[session] session expired, please log in again")
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pingCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}
