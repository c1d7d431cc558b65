package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"artmarket/internal/config"

	"github.com/spf13/cobra"
)

// NewFeedCommand creates the feed command. With --watch it keeps the feed
// fresh at the configured interval and reprints it only when the contents
// actually change.
func NewFeedCommand(opts *RootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the artwork feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if !watch {
				if _, err := rt.app.ProcessFeedRefresh(cmd.Context()); err != nil {
					return errors.New(describeError(err))
				}
				posts := rt.app.Store().Posts()
				return render(cmd.OutOrStdout(), opts, posts, func(w io.Writer) {
					printPosts(w, posts)
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			// First refresh synchronously so a broken session fails fast.
			if _, err := rt.app.ProcessFeedRefresh(ctx); err != nil {
				return errors.New(describeError(err))
			}
			printPosts(cmd.OutOrStdout(), rt.app.Store().Posts())

			poller := rt.app.FeedPoller(config.PollInterval, func() {
				fmt.Fprintln(cmd.OutOrStdout())
				printPosts(cmd.OutOrStdout(), rt.app.Store().Posts())
			})
			poller.Run(ctx)

			fmt.Fprintln(cmd.OutOrStdout(), "stopped")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}
