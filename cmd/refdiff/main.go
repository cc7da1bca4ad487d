package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"refdiff/internal/analysis"
	"refdiff/internal/config"
	"refdiff/internal/git"
	"refdiff/internal/pipeline"
	"refdiff/internal/report"
	"refdiff/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "refdiff",
		Short: "Detect refactorings between two versions of a Go code base",
	}
	configPath string
	dbPath     string
	format     string
	save       bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	// Defaults for these come from the configuration when the flag is not set
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run history database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Report format: text, markdown or json")

	for _, c := range []*cobra.Command{dirsCmd, commitCmd} {
		c.Flags().BoolVar(&save, "save", false, "Store the run in the history database")
	}

	rootCmd.AddCommand(dirsCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if format != "" {
		cfg.Report.Format = format
	}
	return cfg
}

func options(cfg *config.Config) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.SourceFolder = cfg.Project.SourceFolder
	opts.Thresholds = cfg.Thresholds
	return opts
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// compareAndReport runs the comparison, prints the report and optionally
// stores the run.
func compareAndReport(ctx context.Context, cfg *config.Config, before, after pipeline.FileSource) {
	f, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Fprintf(os.Stderr, "🔍 Comparing %s -> %s\n", before.Name(), after.Name())
	res, err := pipeline.Compare(ctx, before, after, options(cfg))
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}
	fmt.Fprintf(os.Stderr, "📊 Extracted %d/%d files in %v, detection took %v.\n",
		res.Before.Files, res.After.Files, res.Timings.Extract, res.Timings.Detect)
	if dup := res.Before.Duplicates + res.After.Duplicates; dup > 0 {
		log.Printf("⚠️ Skipped %d duplicate declarations", dup)
	}

	impact := analysis.NewAnalyzer(res.Model).AnalyzeImpact(res.Refactorings)
	fmt.Fprintf(os.Stderr, "  -> %d refactorings, %d entities directly affected, %d dependents\n",
		len(res.Refactorings), len(impact.DirectlyAffected), len(impact.IndirectlyAffected))

	if err := report.Write(os.Stdout, f, res.Refactorings); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if !save {
		return
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, storage.NewRun(before.Name(), after.Name(), res.Refactorings))
	if err != nil {
		log.Fatalf("Failed to save run: %v", err)
	}
	fmt.Fprintf(os.Stderr, "💾 Saved run %s to %s\n", id, cfg.Storage.Path)
}

var dirsCmd = &cobra.Command{
	Use:   "dirs <before> <after>",
	Short: "Compare two directory trees",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx, cancel := signalContext()
		defer cancel()

		before := pipeline.NewDirSource(args[0], cfg.Project.IncludeTests)
		after := pipeline.NewDirSource(args[1], cfg.Project.IncludeTests)
		compareAndReport(ctx, cfg, before, after)
	},
}

// commitArgs splits "[repo] <rev>"; the repository defaults to the
// configured project root.
func commitArgs(cfg *config.Config, args []string) (repoDir, rev string) {
	if len(args) == 1 {
		return cfg.Project.Root, args[0]
	}
	return args[0], args[1]
}

var commitCmd = &cobra.Command{
	Use:   "commit [repo] <rev>",
	Short: "Compare a commit with its first parent",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx, cancel := signalContext()
		defer cancel()

		repoDir, revArg := commitArgs(cfg, args)
		repo, err := git.Open(ctx, repoDir)
		if err != nil {
			log.Fatalf("Failed to open repository: %v", err)
		}
		rev, err := repo.ResolveRevision(ctx, revArg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		parent, err := repo.Parent(ctx, rev)
		if err != nil {
			log.Fatalf("Commit %s has no parent: %v", revArg, err)
		}

		before := pipeline.NewGitSource(repo, parent, cfg.Project.IncludeTests)
		after := pipeline.NewGitSource(repo, rev, cfg.Project.IncludeTests)

		if cfg.Project.ChangedOnly {
			dirs, err := pipeline.ChangedDirs(ctx, repo, parent, rev)
			if err != nil {
				log.Fatalf("Failed to get git changes: %v", err)
			}
			if len(dirs) == 0 {
				fmt.Fprintln(os.Stderr, "✅ No Go changes detected.")
				return
			}
			fmt.Fprintf(os.Stderr, "📝 Restricting to %d changed directories.\n", len(dirs))
			before.Dirs, after.Dirs = dirs, dirs
		}

		compareAndReport(ctx, cfg, before, after)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored runs, or print the refactorings of one run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		if len(args) == 0 {
			runs, err := store.ListRuns(ctx)
			if err != nil {
				log.Fatalf("Failed to list runs: %v", err)
			}
			if len(runs) == 0 {
				fmt.Println("No stored runs.")
				return
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %s -> %s  (%d refactorings)\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Before, r.After, r.Count)
			}
			return
		}

		f, err := report.ParseFormat(cfg.Report.Format)
		if err != nil {
			log.Fatalf("%v", err)
		}
		run, err := store.LoadRun(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}
		if err := report.WriteRecords(os.Stdout, f, run.Refactorings); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	},
}
