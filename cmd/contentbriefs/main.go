package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ContentBriefs/internal/app"
	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/infrastructure/validation"
	"ContentBriefs/internal/logging"
	"ContentBriefs/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "contentbriefs",
	Short: "Generate SEO content briefs from a spreadsheet of pages",
	Long: `contentbriefs turns rows of (url, topic, keywords) into Word content briefs.
Each row is researched on the client website, written by the selected AI provider,
checked against the brief rules and bundled into a single ZIP archive.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONTENT_BRIEFS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to YAML config")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())
}

func loadConfig() config.Config {
	if path := viper.GetString("config"); path != "" {
		_ = os.Setenv("CONTENT_BRIEFS_CONFIG", path)
	}
	cfg := config.Load()
	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg
}

func withApp(ctx context.Context, fn func(context.Context, *app.Application) error) error {
	cfg := loadConfig()
	// CLI output goes to stdout, so logs go to stderr
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level)
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func batchCmd() *cobra.Command {
	var file, providerName, outDir string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate briefs for every row of a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				items, err := readItems(ctx, a, file)
				if err != nil {
					return err
				}

				id := domain.ProviderID(strings.ToLower(strings.TrimSpace(providerName)))
				if id == "" {
					id = a.DefaultProvider()
				}

				summary, err := a.Service().Execute(ctx, items, id, func(ev usecase.Event) {
					if ev.Kind == usecase.EventProgress {
						fmt.Fprintln(os.Stderr, ev.Label)
					}
				})
				if err != nil {
					return err
				}

				if summary.Archive != nil {
					if err := os.MkdirAll(outDir, 0o755); err != nil {
						return err
					}
					path := filepath.Join(outDir, summary.Archive.Filename)
					if err := os.WriteFile(path, summary.Archive.Bytes, 0o644); err != nil {
						return fmt.Errorf("write archive: %w", err)
					}
					fmt.Fprintf(os.Stderr, "archive written to %s\n", path)
				}

				if viper.GetBool("json") {
					return printJSON(summaryView(summary))
				}
				printResults(summary)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "spreadsheet (.xlsx, .xlsm or .csv)")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "AI provider (defaults to the configured default)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the ZIP archive")
	return cmd
}

func parseCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show the batch items read from a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				items, err := readItems(ctx, a, file)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Row", "URL", "Topic", "Primary KW", "Secondary KWs"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.Row, it.URL, it.Topic, it.PrimaryKeyword, strings.Join(it.SecondaryKeywords, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "spreadsheet (.xlsx, .xlsm or .csv)")
	return cmd
}

func researchCmd() *cobra.Command {
	var url, topic string
	var keywords []string
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Analyse a client website without generating a brief",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return errors.New("--url is required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				research, err := a.Researcher().Research(ctx, url, topic, keywords)
				if err != nil {
					return err
				}
				return printJSON(research)
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "client website")
	cmd.Flags().StringVar(&topic, "topic", "", "topic used to pick relevant pages")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "keyword used to rank internal links (repeatable)")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List AI providers with a configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				providers := a.Providers()
				if viper.GetBool("json") {
					return printJSON(map[string]any{"providers": providers, "default": a.DefaultProvider()})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Provider", "Default"})
				for _, id := range providers {
					mark := ""
					if id == a.DefaultProvider() {
						mark = "*"
					}
					tw.AppendRow(table.Row{id, mark})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				if len(args) == 1 {
					run, err := a.History().GetRun(ctx, args[0])
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(run)
					}
					printRun(run)
					return nil
				}

				runs, err := a.History().ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Provider", "Started", "Total", "OK", "Failed", "Cancelled"})
				for _, r := range runs {
					tw.AppendRow(table.Row{r.ID, r.Provider, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Total, r.Succeeded, r.Failed, r.Cancelled})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			a, err := app.New(cfg, logging.New(cfg.Logging.Level))
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}

func readItems(ctx context.Context, a *app.Application, path string) ([]domain.BatchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return a.Parser().Parse(ctx, filepath.Base(path), f)
}

func printResults(summary usecase.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Row", "Topic", "Status", "File / Error", "Errors", "Warnings"})
	for _, r := range summary.Results {
		detail, errs, warns := r.Error, 0, 0
		if r.Document != nil {
			detail = r.Document.Filename
			for _, v := range r.Document.Violations {
				if v.Kind == domain.ViolationError {
					errs++
				} else {
					warns++
				}
			}
		}
		tw.AppendRow(table.Row{r.Row, r.Topic, statusLabel(r), detail, errs, warns})
	}
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d ok / %d failed", summary.Succeeded, summary.Failed), "", ""})
	tw.Render()
	if summary.Cancelled {
		fmt.Fprintln(os.Stderr, "batch was cancelled before every row finished")
	}
}

// statusLabel flags successful briefs that still break a blocking rule.
func statusLabel(r domain.BatchResult) string {
	if r.Document != nil && validation.HasErrors(r.Document.Violations) {
		return string(r.Status) + " (needs review)"
	}
	return string(r.Status)
}

func printRun(run domain.RunRecord) {
	fmt.Printf("Run %s (%s)\nStarted %s, finished %s\n", run.ID, run.Provider,
		run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Row", "Topic", "Status", "File / Error", "Errors", "Warnings"})
	for _, r := range run.Results {
		detail := r.Filename
		if r.Error != "" {
			detail = r.Error
		}
		tw.AppendRow(table.Row{r.Row, r.Topic, r.Status, detail, r.Errors, r.Warnings})
	}
	tw.Render()
}

type resultView struct {
	Row        int                `json:"row"`
	Topic      string             `json:"topic"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Filename   string             `json:"filename,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func summaryView(s usecase.Summary) map[string]any {
	results := make([]resultView, 0, len(s.Results))
	for _, r := range s.Results {
		v := resultView{Row: r.Row, Topic: r.Topic, Status: string(r.Status), Error: r.Error}
		if r.Document != nil {
			v.Filename = r.Document.Filename
			v.Violations = r.Document.Violations
		}
		results = append(results, v)
	}
	out := map[string]any{
		"run_id":    s.RunID,
		"provider":  s.Provider,
		"total":     s.Total,
		"succeeded": s.Succeeded,
		"failed":    s.Failed,
		"cancelled": s.Cancelled,
		"results":   results,
	}
	if s.Archive != nil {
		out["archive"] = s.Archive.Filename
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
