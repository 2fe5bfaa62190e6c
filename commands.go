package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"filefinder/internal"
	"filefinder/internal/backend"
	"filefinder/internal/disks"
	"filefinder/internal/logging"
	"filefinder/internal/metrics"
	"filefinder/internal/session"
)

var disksCmd = &cobra.Command{
	Use:   "disks",
	Short: "Show mounted disks and their usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := newController(cfg)
		if err := ctrl.Initialize(cmd.Context()); err != nil {
			return err
		}

		snap := ctrl.Snapshot()
		if len(snap.Disks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No disks found")
			return nil
		}
		for _, d := range snap.Disks {
			fmt.Fprintln(cmd.OutOrStdout(), internal.RenderDiskSummary(d))
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Run a single search and print the results",
	Long: `Search file names containing QUERY (case-insensitive).

An empty QUERY matches every name that passes the filters.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the local backend over HTTP",
	Long: `Expose the local backend on POST /invoke/{command} so another
filefinder (with --backend http) can search this machine.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), internal.GetVersionString())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), internal.GetFullVersionString())
	},
}

func init() {
	searchCmd.Flags().String("ext", "", "Only files with this extension (e.g. .pdf)")
	searchCmd.Flags().String("disk", "", "Only search this disk (default: all disks)")
	searchCmd.Flags().Bool("folders", false, "Include folders in the results")
	searchCmd.Flags().Bool("json", false, "Output in JSON format")

	versionCmd.Flags().Bool("short", false, "Print only the version number")

	serveCmd.Flags().String("addr", "", "Listen address (default from serve.addr)")
	v.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func runSearch(cmd *cobra.Command, args []string) error {
	ext, _ := cmd.Flags().GetString("ext")
	disk, _ := cmd.Flags().GetString("disk")
	folders, _ := cmd.Flags().GetBool("folders")
	asJSON, _ := cmd.Flags().GetBool("json")

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := newController(cfg)
	ctrl.UpdateCriteria(func(c *session.Criteria) {
		c.Query = query
		c.Extension = ext
		c.Disk = disk
		c.IncludeFolders = folders
	})

	if err := ctrl.Search(ctx); err != nil {
		return err
	}
	snap := ctrl.Snapshot()

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Results)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range snap.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Path, disks.FormatBytes(r.Size))
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d results in %s\n", len(snap.Results), snap.DurationLabel)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Serve.Addr
	logger := logging.L().Named("serve")

	checkRevealProgram()
	local := backend.NewLocal(logging.L().Named("local"))

	mux := http.NewServeMux()
	mux.Handle("/", backend.Handler(local, logger))
	mux.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           logging.Middleware(logger, metrics.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "%s serving on http://%s (POST /invoke/{command}, GET /metrics)\n",
		internal.GetFullVersionString(), addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
