package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/scraper"
)

var (
	importSource     string
	importURL        string
	importDryRun     bool
	importLimit      int
	importSourcesDir string
	historyLimit     int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import internship postings from career pages",
	Long: `Fetch career pages and store their postings as unverified listings.

Tier 0 sources read schema.org JobPosting JSON-LD; tier 1 sources use CSS
selectors from their YAML config. robots.txt is honoured for every fetch.

Examples:
  # Import every enabled source in configs/sources
  server import

  # One named source, previewing without writing
  server import --source acme-careers --dry-run

  # An ad-hoc page with JSON-LD postings
  server import --url https://careers.example.com/interns

  # Suggest selectors for a new tier 1 source
  server import inspect https://careers.example.com/interns`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var importInspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Summarize a page's structure to help write a source config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := scraper.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), scraper.FormatInspectResult(result))
		return nil
	},
}

var importListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := scraper.LoadSourceConfigs(importSourcesDir)
		if err != nil && len(sources) == 0 {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTIER\tENABLED\tURL")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", s.Name, s.Tier, s.Enabled, s.URL)
		}
		if flushErr := w.Flush(); flushErr != nil {
			return flushErr
		}
		return err
	},
}

var importHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent import runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		repo, closeDB, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		batches, err := repo.Imports().Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSOURCE\tCREATED\tDUPLICATES\tFAILED\tSTATUS")
		for _, b := range batches {
			status := "running"
			if b.FinishedAt != nil {
				status = "done in " + b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				b.StartedAt.Format("2006-01-02 15:04"), b.Source, b.Created, b.Duplicates, b.Failed, status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importInspectCmd, importListCmd, importHistoryCmd)

	importCmd.Flags().StringVar(&importSource, "source", "", "import only the named source")
	importCmd.Flags().StringVar(&importURL, "url", "", "import JSON-LD postings from an ad-hoc URL")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print what would be stored without touching the database")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max listings per source (0 = no limit)")
	importCmd.MarkFlagsMutuallyExclusive("source", "url")
	importCmd.PersistentFlags().StringVar(&importSourcesDir, "sources", scraper.DefaultSourcesDir, "source config directory")
	importHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := cliLogger()
	opts := scraper.Options{DryRun: importDryRun, Limit: importLimit, SourcesDir: importSourcesDir}

	// A dry run never writes, so it needs no database.
	var importer *scraper.Importer
	if importDryRun {
		importer = scraper.NewImporter(nil, nil, logger)
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		repo, closeDB, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		importer = scraper.NewImporter(internships.NewService(repo.Internships()), repo.Imports(), logger)
	}

	var (
		results []scraper.Result
		err     error
	)
	switch {
	case importURL != "":
		var r scraper.Result
		r, err = importer.ImportURL(ctx, importURL, opts)
		results = append(results, r)
	case importSource != "":
		var source scraper.SourceConfig
		source, err = findSource(importSourcesDir, importSource)
		if err != nil {
			return err
		}
		var r scraper.Result
		r, err = importer.ImportSource(ctx, source, opts)
		results = append(results, r)
	default:
		results, err = importer.ImportAll(ctx, opts)
	}

	if printErr := printImportResults(cmd, results); printErr != nil {
		return printErr
	}
	return err
}

func findSource(dir, name string) (scraper.SourceConfig, error) {
	sources, err := scraper.LoadSourceConfigs(dir)
	for _, s := range sources {
		if s.Name == name {
			return s, nil
		}
	}
	if err != nil {
		return scraper.SourceConfig{}, err
	}
	return scraper.SourceConfig{}, fmt.Errorf("source %q not found in %s", name, dir)
}

func printImportResults(cmd *cobra.Command, results []scraper.Result) error {
	out := cmd.OutOrStdout()
	if importDryRun {
		for _, r := range results {
			data, err := scraper.MarshalPreview(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tFOUND\tSKIPPED\tCREATED\tDUPLICATES\tFAILED\tERROR")
	for _, r := range results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.SourceName, r.Found, r.Skipped, r.Created, r.Duplicates, r.Failed, errText)
	}
	return w.Flush()
}
