package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/contentmesh"
	"github.com/hupe1980/contentmesh/config"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/natsbus"
	"github.com/hupe1980/contentmesh/output"
)

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.offline {
		cfg.Model.Provider = config.ProviderNone
	}
	return cfg, nil
}

// readRecord decodes the JSON object at path, or returns the sample record
// when path is empty. "-" reads stdin.
func readRecord(path string, stdin io.Reader) (content.Record, error) {
	if path == "" {
		return content.SampleRecord(), nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var rec content.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if rec == nil {
		return nil, errors.New("parse input: expected a JSON object")
	}

	return rec, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runCmd(g *globalFlags) *cobra.Command {
	var (
		inputs        []string
		outputDir     string
		perRun        bool
		noConsole     bool
		sqlitePath    string
		maxIterations int
		natsURL       string
		embeddedNATS  bool
		metricsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate the pages for a product record",
		Long: `Run executes a full content generation run. The input is a JSON object
with the product fields; without --input the built-in sample product is used.
Repeat --input to generate several products in one batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("per-run") {
				cfg.Output.PerRun = perRun
			}
			if noConsole {
				cfg.Output.Console = false
			}
			if flags.Changed("sqlite") {
				cfg.Output.SQLitePath = sqlitePath
			}
			if flags.Changed("max-iterations") {
				cfg.Engine.MaxIterations = maxIterations
			}
			if flags.Changed("nats-url") {
				cfg.NATS.URL = natsURL
				cfg.NATS.Embedded = false
			}
			if embeddedNATS {
				cfg.NATS.Embedded = true
				cfg.NATS.URL = ""
			}
			if flags.Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}

			if len(inputs) == 0 {
				inputs = []string{""}
			}
			records := make([]content.Record, 0, len(inputs))
			for _, in := range inputs {
				rec, err := readRecord(in, cmd.InOrStdin())
				if err != nil {
					return err
				}
				records = append(records, rec)
			}

			mesh, err := contentmesh.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			defer mesh.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if reg := mesh.Registry(); reg != nil {
				srv := &http.Server{
					Addr:              cfg.Metrics.Addr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() { _ = srv.ListenAndServe() }()
				defer srv.Close()
			}

			if len(records) == 1 {
				res, err := mesh.Run(ctx, records[0])
				if err != nil {
					return err
				}
				report(cmd.ErrOrStderr(), res)
				return nil
			}

			results, err := mesh.RunAll(ctx, records)
			for _, res := range results {
				if res != nil {
					report(cmd.ErrOrStderr(), res)
				}
			}

			return err
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&inputs, "input", "i", nil, "Product record JSON file (- for stdin), repeatable")
	f.StringVarP(&outputDir, "output-dir", "o", "", "Directory for the page JSON files")
	f.BoolVar(&perRun, "per-run", false, "Write files into a subdirectory per run")
	f.BoolVar(&noConsole, "no-console", false, "Do not print the pages")
	f.StringVar(&sqlitePath, "sqlite", "", "Archive the run in this SQLite database")
	f.IntVar(&maxIterations, "max-iterations", 2, "Maximum refinement iterations")
	f.StringVar(&natsURL, "nats-url", "", "Publish run events to this NATS server")
	f.BoolVar(&embeddedNATS, "embedded-nats", false, "Publish run events to an embedded NATS server")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

func report(w io.Writer, res *contentmesh.Result) {
	status := "complete"
	if len(res.Artifacts.Missing) > 0 {
		status = fmt.Sprintf("incomplete, missing %v", res.Artifacts.Missing)
	}
	fmt.Fprintf(w, "run %s %s: %d steps, %d iteration(s) in %s\n",
		res.RunID, status, res.Steps, res.Artifacts.Iterations, res.Duration.Round(time.Millisecond))
}

func planCmd(g *globalFlags) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the initial plan for a product record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			cfg.Output = config.OutputConfig{}
			cfg.NATS = config.NATSConfig{}
			cfg.Metrics = config.MetricsConfig{}

			rec, err := readRecord(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			mesh, err := contentmesh.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			defer mesh.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			plan, err := mesh.Plan(ctx, rec)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Product record JSON file (- for stdin)")

	return cmd
}

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		natsURL string
		runID   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow run events published to NATS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if natsURL == "" {
				natsURL = cfg.NATS.URL
			}
			if natsURL == "" {
				natsURL = nats.DefaultURL
			}

			conn, err := nats.Connect(natsURL, nats.Name(appName+"-watch"))
			if err != nil {
				return fmt.Errorf("connect to nats: %w", err)
			}
			defer conn.Close()

			subject := natsbus.TopicAll
			if runID != "" {
				subject = fmt.Sprintf("contentmesh.run.%s.>", runID)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			out := cmd.OutOrStdout()
			sub, err := natsbus.Subscribe(conn, subject, natsbus.Handlers{
				Message: func(id string, m core.Message) {
					fmt.Fprintf(out, "%s  %-20s -> %-20s %-8s %s\n", id, m.From, m.To, m.Kind, m.Str(core.KeyStatus))
				},
				Step: func(rec natsbus.StepRecord) {
					fmt.Fprintf(out, "%s  step %d %s -> %s (%dms)\n", rec.RunID, rec.Step, rec.Stage, rec.Next, rec.DurationMS)
				},
				Complete: func(rec natsbus.RunRecord) {
					fmt.Fprintf(out, "%s  finished: %d steps, %d iteration(s)\n", rec.RunID, rec.Steps, rec.Iterations)
					if runID != "" {
						stop()
					}
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = sub.Unsubscribe() }()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&runID, "run", "", "Only follow this run and exit when it finishes")

	return cmd
}

func historyCmd(g *globalFlags) *cobra.Command {
	var (
		sqlitePath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List archived runs or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if sqlitePath == "" {
				sqlitePath = cfg.Output.SQLitePath
			}
			if sqlitePath == "" {
				return errors.New("no archive configured: pass --sqlite or set output.sqlite_path")
			}

			archive, err := output.NewSQLiteWriter(sqlitePath)
			if err != nil {
				return err
			}
			defer archive.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				ids, err := archive.List(ctx, limit)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			run, err := archive.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}

			return output.NewConsoleWriter(out).Write(ctx, run.ID, run.Artifacts)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite archive path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	return cmd
}
