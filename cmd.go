package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Version is set at build time
var Version = "dev"

// options are the global flags shared by every command
type options struct {
	configFile string
	server     string
	backend    string
	bucket     string
	logFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sourcetabs",
		Short: "Tabbed terminal browser for remote file services",
		Long: `sourcetabs browses the source paths of a remote file service, one tab
per path. It talks to an HTTP file service or directly to an S3 bucket.

Configuration is read from .sourcetabs.ini in the current directory, the home
directory or /etc. Run 'sourcetabs config init' to create one.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "", "File service URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Backend: http or s3 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.bucket, "bucket", "", "S3 bucket, implies --backend s3")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file used by the interactive browser")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newRootsCmd(opts))
	rootCmd.AddCommand(newLsCmd(opts))
	rootCmd.AddCommand(newCatCmd(opts))
	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig reads the configuration and applies flag overrides
func (o *options) loadConfig() (*Config, error) {
	cfg, err := LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.server != "" {
		cfg.ServerURL = o.server
	}
	if o.bucket != "" {
		cfg.S3.Bucket = o.bucket
		cfg.Backend = BackendS3
	}
	if o.backend != "" {
		cfg.Backend = strings.ToLower(o.backend)
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService builds the file service selected by the configuration
func newService(ctx context.Context, cfg *Config, log zerolog.Logger) (FileService, string, error) {
	switch cfg.Backend {
	case BackendS3:
		if err := cfg.ResolveS3Credentials(); err != nil {
			return nil, "", err
		}
		svc, err := NewS3Service(&cfg.S3, log)
		if err != nil {
			return nil, "", fmt.Errorf("error creating S3 client: %w", err)
		}
		if err := svc.HeadBucket(ctx); err != nil {
			return nil, "", fmt.Errorf("error accessing bucket: %w", err)
		}
		return svc, "s3://" + cfg.S3.Bucket, nil
	default:
		svc, err := NewHTTPService(cfg.ServerURL, log)
		if err != nil {
			return nil, "", err
		}
		return svc, cfg.ServerURL, nil
	}
}

// cliSetup loads config and a service for the non-interactive commands,
// which log to stderr
func (o *options) cliSetup(ctx context.Context) (*Config, FileService, zerolog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	level, err := parseLogLevel(cfg.LogLevel, o.verbose)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := newConsoleLogger(os.Stderr, level)
	svc, _, err := newService(ctx, cfg, log)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, svc, log, nil
}

func runTUI(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	level, err := parseLogLevel(cfg.LogLevel, opts.verbose)
	if err != nil {
		return err
	}
	log, closer, err := newFileLogger(cfg.LogFile, level)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, source, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	selector := NewSelector(ctx, svc, DirSink{Dir: cfg.DownloadDir}, cfg.Timeout, log)
	store := NewTabStore(ctx, svc, selector, StoreOptions{
		PageSize:  cfg.PageSize,
		SortOrder: cfg.Sort,
		Timeout:   cfg.Timeout,
		Logger:    log,
	})

	log.Info().Str("backend", cfg.Backend).Str("source", source).Str("config", cfg.Path).Msg("starting browser")

	program := tea.NewProgram(NewModel(store, selector, source, cfg.IconSize), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func newRootsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "Print the source paths of the file service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, _, err := opts.cliSetup(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			roots, err := svc.ListRoots(ctx)
			if err != nil {
				return fmt.Errorf("error fetching source paths: %w", err)
			}
			for _, r := range roots {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
}

func newLsCmd(opts *options) *cobra.Command {
	var page, limit int
	var filter, sortFlag string
	var all bool

	cmd := &cobra.Command{
		Use:   "ls <path>...",
		Short: "List directories",
		Long: `List one or more directories. Paths are fetched concurrently and
printed in the order given.

Example:
  sourcetabs ls /data/reports /data/uploads --filter 2024 --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, log, err := opts.cliSetup(cmd.Context())
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = cfg.PageSize
			}
			order := cfg.Sort
			if sortFlag != "" {
				if order, err = ParseSortOrder(sortFlag); err != nil {
					return err
				}
			}

			listings := make([][]Entry, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(4)
			for i, p := range args {
				i, p := i, p
				g.Go(func() error {
					entries, err := listPath(ctx, svc, cfg, ListRequest{Path: p, Page: page, Limit: limit, Filter: filter}, all)
					if err != nil {
						return fmt.Errorf("error fetching files for %s: %w", p, err)
					}
					log.Debug().Str("path", p).Int("entries", len(entries)).Msg("listed")
					listings[i] = entries
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			sorter := newEntrySorter()
			out := cmd.OutOrStdout()
			for i, p := range args {
				if len(args) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s:\n", p)
				}
				sorter.sort(listings[i], order)
				printEntries(out, listings[i])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to fetch")
	cmd.Flags().IntVar(&limit, "limit", 0, "Entries per page (default: page_size from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only list entries whose name contains this text")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort order: last-modified or name")
	cmd.Flags().BoolVar(&all, "all", false, "Follow pagination until every entry is listed")

	return cmd
}

// listPath fetches one page, or every page from req.Page on when all is set
func listPath(ctx context.Context, svc FileService, cfg *Config, req ListRequest, all bool) ([]Entry, error) {
	var entries []Entry
	for {
		reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		listing, err := svc.List(reqCtx, req)
		cancel()
		if err != nil {
			return nil, err
		}
		entries = mergeEntries(entries, listing.Items)
		if !all || !listing.HasMore {
			return entries, nil
		}
		req.Page++
	}
}

func printEntries(w io.Writer, entries []Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		size := "-"
		if e.HasSize {
			size = humanize.Bytes(uint64(e.Size))
		}
		modified := "-"
		if !e.LastModified.IsZero() {
			modified = e.LastModified.Local().Format("2006-01-02 15:04")
		}
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", modified, size, name)
	}
	tw.Flush()
}

func newCatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print the preview content of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, _, err := opts.cliSetup(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			content, err := svc.Preview(ctx, args[0])
			if err != nil {
				return fmt.Errorf("error fetching file preview: %w", err)
			}

			p := classifyPreview(args[0], content)
			switch p.Kind {
			case PreviewImage:
				fmt.Fprintf(cmd.OutOrStdout(), "[%s image, %s]\n", p.MediaType, humanize.Bytes(uint64(p.Bytes)))
			case PreviewBinary:
				fmt.Fprintln(cmd.OutOrStdout(), p.Content)
			default:
				fmt.Fprint(cmd.OutOrStdout(), p.Content)
				if !strings.HasSuffix(p.Content, "\n") {
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}
			return nil
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	var outputDir string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "Download files",
		Long: `Download one or more files. Existing local files are never
overwritten; a numbered name is chosen instead.

Example:
  sourcetabs get /data/reports/q3.pdf -o ~/Downloads`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, log, err := opts.cliSetup(cmd.Context())
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.DownloadDir
			}

			sink := DirSink{Dir: outputDir}
			if !noProgress {
				sink.Progress = progressBar
			}

			for _, p := range args {
				dl, err := svc.Download(cmd.Context(), p)
				if err != nil {
					return fmt.Errorf("error downloading %s: %w", p, err)
				}
				savedTo, err := sink.Save(dl)
				if err != nil {
					return fmt.Errorf("error downloading %s: %w", p, err)
				}
				log.Info().Str("path", p).Str("saved_to", savedTo).Msg("Downloaded")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to save into (default: download_dir from config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not show a progress bar")

	return cmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := InteractiveSetup(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("setup cancelled or failed: %w", err)
			}
			return nil
		},
	})

	return configCmd
}
