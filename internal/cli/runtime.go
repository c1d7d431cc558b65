// Package cli implements the artmarket command-line client. Each command
// wraps one application action; the shared runtime wires configuration,
// logging, the persisted session, the resource clients and the store
// together the same way for every command.
package cli

import (
	"fmt"
	"os"

	"artmarket/internal/api"
	"artmarket/internal/app"
	"artmarket/internal/config"
	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"
	"artmarket/internal/store"
)

// runtime bundles the wired client for one command invocation.
type runtime struct {
	app *app.App
	log *logger.Logger
}

// newRuntime builds the full client stack from configuration. Any
// persisted session is restored before the first request goes out.
func newRuntime() (*runtime, error) {
	l, err := logger.CreateLogger(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("cli: create logger: %w", err)
	}

	sess := session.New(config.TokenFile, l)
	if err := sess.Load(); err != nil {
		return nil, fmt.Errorf("cli: load session: %w", err)
	}

	st := store.New(l)

	client := api.NewClient(config.APIBaseURL, config.EcommerceBaseURL, sess,
		config.RequestTimeout, config.RequestRate, l)
	client.SetAuthFailureHandler(func() {
		sess.Clear()
		st.Clear()
		fmt.Fprintln(os.Stderr, "Session expired. Run 'artmarket login' to sign in again.")
	})

	a := app.NewApp(sess,
		api.NewAuthClient(client),
		api.NewPostsClient(client),
		api.NewCommentsClient(client),
		api.NewUsersClient(client),
		api.NewCartClient(client),
		st, l)

	return &runtime{app: a, log: l}, nil
}
