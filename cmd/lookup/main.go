package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/mapview"
	"github.com/evyataryagoni/iptracker/internal/screen"
	"github.com/spf13/cobra"
)

// errNoData is returned when the final screen has nothing to show
var errNoData = errors.New("no data available")

func main() {
	if err := newLookupCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newLookupCmd(appConfig *config.Config) *cobra.Command {
	var (
		providerURL string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "lookup [target]",
		Short: "Show where an IP address or domain is located",
		Long: `Resolves this machine's public address, then the optional target,
and prints the info panel and map position the tracker page would show.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logger.Config{
				Level:  logLevel,
				Pretty: true,
				Output: cmd.ErrOrStderr(),
			})

			client := geolookup.NewClient(geolookup.Config{BaseURL: providerURL}, nil, log)
			mapView := mapview.New(mapview.Options{}, nil, log)
			view := screen.New(mapView)

			c := controller.New(client, nil, log)
			c.Subscribe(view)

			c.Activate(cmd.Context())
			c.Wait()

			if len(args) == 1 {
				c.Search(cmd.Context(), args[0])
				c.Wait()
			}

			final := view.Current()
			printView(cmd.OutOrStdout(), final)

			if final.Phase == controller.PhaseEmpty {
				fmt.Fprintln(cmd.ErrOrStderr(), errNoData)
				return errNoData
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerURL, "provider", appConfig.ProviderURL, "geolocation provider base URL")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	return cmd
}

// printView writes the panel rows followed by the map line
func printView(w io.Writer, v screen.View) {
	if v.Panel.Visible {
		for _, line := range v.Panel.Lines() {
			fmt.Fprintf(w, "%-12s %s\n", line[0], line[1])
		}
	}

	if v.Map.Placeholder {
		fmt.Fprintf(w, "%-12s %s\n", "MAP", v.Map.PlaceholderText)
		return
	}
	widget := v.Map.Widget
	fmt.Fprintf(w, "%-12s %s (zoom %d)\n", "MAP", widget.Center, widget.Zoom)
}
