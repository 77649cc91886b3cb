package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yegors/zendmap/internal/api"
	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/internal/config"
	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/internal/pdfgrid"
	"github.com/yegors/zendmap/internal/pipeline"
	"github.com/yegors/zendmap/internal/storage/sqlite"
	"github.com/yegors/zendmap/pkg/logger"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "zendmap",
		Short:         "Map mobile base stations from the site registry and their conformity certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.toml", "Path to the TOML configuration")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newParseCmd(&configPath),
		newServeCmd(&configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	var bbox string
	var outDir string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the base station files for every configured operator",
		Long: `Query the site registry inside a Lambert 72 bounding box, match every site to the most
recent conformity certificate nearby, extract its antenna table and write one base station
file per operator.

Example: zendmap run -b 102843.53,191922.91,106843.53,195922.91 -o ./gent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if bbox != "" {
				if cfg.App.BBox, err = geo.ParseBBox(bbox); err != nil {
					return err
				}
			}
			if outDir != "" {
				cfg.App.OutputDir = outDir
			}
			if noStore {
				cfg.Storage.Enabled = false
			}
			return runPipeline(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&bbox, "bbox", "b", "", "Bounding box left,bottom,right,top in Lambert 72 metres")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the station catalog")

	return cmd
}

func runPipeline(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Sync()

	var catalog pipeline.Catalog
	if cfg.Storage.Enabled {
		storage, closeDB, err := openStorage(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		catalog = storage
	}

	report, err := pipeline.New(cfg, pipeline.DefaultDeps(cfg, catalog, log), log).Run(ctx, cfg.App.BBox, cfg.App.OutputDir)
	if err != nil {
		return err
	}

	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report *pipeline.Report) {
	fmt.Fprintf(out, "run %s  bbox %s  sites %d (colocated %d, all operators %d)\n\n",
		report.RunID, report.BBox, report.Statistics.Total, report.Statistics.Colocated, report.Statistics.AllOperators)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "operator\tsites\tfeatures\tmatched\tskipped\tfailed\tno sectors\temitted\tmedian m\tmax m\t")
	for _, s := range report.Operators {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f\t%.1f\t\n",
			s.Operator, s.Sites, s.Features, s.Matched, s.Skipped, s.Failed, s.NoSectors, s.Emitted,
			s.MedianDistance, s.MaxDistance)
	}
	w.Flush()
}

func newParseCmd(configPath *string) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "parse [certificate.pdf]",
		Short: "Extract and print the antenna table of one certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer log.Sync()

			extractor := certificate.NewExtractor(pdfgrid.NewSource(pdfgrid.DefaultSettings(), log), cfg.Attest.Pages, log)

			var table certificate.Table
			if noCache {
				table, err = extractor.Parse(cmd.Context(), args[0])
			} else {
				table, err = extractor.Extract(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "    ")
			return enc.Encode(table)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore and do not write the sidecar table")

	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the station catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if !cfg.Storage.Enabled {
				return errors.New("serve needs storage.enabled = true")
			}
			log, err := newLogger(cfg, os.Stdout)
			if err != nil {
				return err
			}
			defer log.Sync()

			storage, closeDB, err := openStorage(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			return serve(cmd.Context(), cfg, api.NewRouter(storage, cfg, log).Routes(), log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, handler http.Handler, log *logger.Logger) error {
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config, out io.Writer) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func openStorage(cfg *config.Config, log *logger.Logger) (*sqlite.StationStorage, func(), error) {
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	storage, err := sqlite.NewStationStorage(db, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return storage, func() { db.Close() }, nil
}
