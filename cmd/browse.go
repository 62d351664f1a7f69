package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"Trackshelf/client/api"
	"Trackshelf/client/app"
	"Trackshelf/client/eventloop"
	"Trackshelf/client/player"
	"Trackshelf/client/view"
	"Trackshelf/core/audio"
	"Trackshelf/logger"
	"Trackshelf/model"

	"github.com/spf13/cobra"
)

var (
	browseHTML  bool
	browseAlbum string
	browseFor   time.Duration
	browseWatch bool
	browseTheme string
)

var browseCmd = &cobra.Command{
	Use:   "browse <path>",
	Short: "Render a client location against a running server",
	Long: `Runs the headless client against API_BASE_URL: loads the catalog, routes to
<path> and prints the rendered page. With --play the album starts on virtual
audio handles and the bar is printed once --for has elapsed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := api.New(cfg.APIBaseURL)
		if err != nil {
			return err
		}
		loop := eventloop.New()
		go func() {
			if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("[Browse] event loop stopped", logger.ErrorField(err))
			}
		}()
		defer loop.Stop()

		prober := audio.NewFFprobe(cfg.FFmpegPath)
		out := cmd.OutOrStdout()
		a := app.New(app.Options{
			API:     client,
			Factory: player.NewVirtualFactory(loop, prober),
			Frames:  eventloop.NewTimerFrames(loop, 250*time.Millisecond),
			Prober:  prober,
			Poster:  loop,
			Source:  func(t *model.Track) string { return client.URL(t.File) },
			Alert:   func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), "alert:", msg) },
			Theme:   browseTheme,
		})

		var startErr error
		if err := loop.Do(ctx, func() {
			if startErr = a.Start(ctx, args[0]); startErr != nil {
				return
			}
			if browseAlbum != "" {
				a.Dispatch(ctx, view.Action{Kind: view.ActPlayAlbum, Album: browseAlbum})
			}
		}); err != nil {
			return err
		}
		if startErr != nil {
			return startErr
		}

		if browseWatch {
			go func() {
				if err := a.Watch(ctx, client, loop); err != nil && ctx.Err() == nil {
					logger.Warn("[Browse] event feed closed", logger.ErrorField(err))
				}
			}()
		}
		if browseFor > 0 {
			select {
			case <-time.After(browseFor):
			case <-ctx.Done():
			}
		}

		var page string
		var renderErr error
		if err := loop.Do(context.Background(), func() {
			p := a.Page()
			if browseHTML {
				page, renderErr = p.HTML()
				return
			}
			page = p.TextContent()
			if b := a.Engine().Bar(); b.Visible && b.Track != nil {
				page += fmt.Sprintf("\n[%s] %s - %s  %s  %s", pausedLabel(b.Paused), b.Track.Artist, b.Track.Title,
					b.Progress.Timestamp(), b.LoopMode)
			}
		}); err != nil {
			return err
		}
		if renderErr != nil {
			return renderErr
		}
		fmt.Fprintln(out, page)
		return nil
	},
}

func pausedLabel(paused bool) string {
	if paused {
		return "paused"
	}
	return "playing"
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVar(&browseHTML, "html", false, "print HTML instead of text")
	browseCmd.Flags().StringVar(&browseAlbum, "play", "", "album slug to start playing")
	browseCmd.Flags().DurationVar(&browseFor, "for", 0, "keep the client running this long before printing")
	browseCmd.Flags().BoolVar(&browseWatch, "watch", false, "apply catalog events while running")
	browseCmd.Flags().StringVar(&browseTheme, "theme", view.DefaultTheme, "page theme (dark or light)")
}
