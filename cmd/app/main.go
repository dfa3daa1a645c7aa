package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/wortmanb/obsidian-vault-maintenance/internal"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/analysis"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/cache"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/fix"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/mcpserver"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/report"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/vault"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/watch"
	pkgconfig "github.com/wortmanb/obsidian-vault-maintenance/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newScanner wires the vault store, optional parse cache, and scanner for
// one CLI invocation. The returned cleanup closes the cache.
func newScanner(cmd *cli.Command) (*analysis.Scanner, *vault.FS, *internal.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init vault: %w", err)
	}

	cleanup := func() {}
	var pc *cache.Cache
	if cfg.Cache.Enabled {
		pc, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("init cache: %w", err)
		}
		cleanup = func() { pc.Close() }
	}

	scanner := analysis.NewScanner(store, cfg.AnalysisOptions(), logger, pc)
	return scanner, store, cfg, cleanup, nil
}

// notePaths lists every note file the scan would visit.
func notePaths(store *vault.FS, cfg *internal.Config) ([]string, error) {
	files, _, err := store.Walk(vault.WalkOptions{
		Extensions:  cfg.Vault.Extensions,
		Exclude:     cfg.Vault.Exclude,
		MaxFileSize: cfg.Vault.MaxFileSizeBytes,
	})
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

func renderReport(rep *models.Report, format string) (string, error) {
	switch format {
	case "terminal":
		return report.Terminal(rep), nil
	case "markdown":
		return report.Markdown(rep), nil
	case "json":
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown format %q (want terminal, markdown, or json)", format)
	}
}

func writeOutput(text, saveTo string) error {
	if saveTo == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(saveTo, []byte(text), 0o644); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Printf("report saved to %s\n", saveTo)
	return nil
}

func printChanges(changes []fix.Change) {
	for _, ch := range changes {
		status := "dry-run"
		if ch.Applied {
			status = "applied"
		}
		fmt.Printf("%s (%s)\n%s\n", ch.Path, status, ch.Diff)
	}
	if len(changes) == 0 {
		fmt.Println("nothing to change")
	}
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	scanner, store, _, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scanOnce := func() error {
		rep, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		text, err := renderReport(rep, cmd.String("format"))
		if err != nil {
			return err
		}
		return writeOutput(text, cmd.String("save-to"))
	}

	if err := scanOnce(); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return watch.Run(ctx, store.Root(), 500*time.Millisecond, logger, func() {
		if err := scanOnce(); err != nil {
			logger.Error("rescan failed", slog.String("error", err.Error()))
		}
	})
}

func runFix(ctx context.Context, cmd *cli.Command) error {
	scanner, store, cfg, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	op := fix.New(store, cmd.Bool("dry-run"))

	if src := cmd.String("source"); src != "" {
		ch, err := op.RepairLink(src, cmd.String("old"), cmd.String("new"))
		if err != nil {
			return err
		}
		printChanges([]fix.Change{*ch})
		return nil
	}

	// No explicit repair given: apply the top suggestion for every broken
	// link that has one. Broken references carry note ids, so map them back
	// to file paths first.
	rep, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	paths, err := notePaths(store, cfg)
	if err != nil {
		return err
	}
	pathByID := make(map[string]string, len(paths))
	for _, p := range paths {
		pathByID[strings.TrimSuffix(p, filepath.Ext(p))] = p
	}

	var changes []fix.Change
	for _, bl := range rep.BrokenLinks {
		if len(bl.Suggestions) == 0 {
			continue
		}
		srcPath, ok := pathByID[bl.Ref.Source]
		if !ok {
			continue
		}
		best := bl.Suggestions[0]
		ch, err := op.RepairLink(srcPath, bl.Ref.RawTarget, best.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", srcPath, err)
			continue
		}
		changes = append(changes, *ch)
	}
	printChanges(changes)
	return nil
}

func runTags(ctx context.Context, cmd *cli.Command) error {
	scanner, store, cfg, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sources := cmd.StringSlice("merge")
	target := cmd.String("into")
	if len(sources) == 0 {
		rep, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		if len(rep.Tags.SimilarTags) == 0 {
			fmt.Println("no similar tags found")
			return nil
		}
		for _, pair := range rep.Tags.SimilarTags {
			fmt.Printf("#%s ~ #%s (%.2f)\n", pair.A, pair.B, pair.Score)
		}
		return nil
	}
	if target == "" {
		return fmt.Errorf("--into is required with --merge")
	}

	paths, err := notePaths(store, cfg)
	if err != nil {
		return err
	}
	changes, err := fix.New(store, cmd.Bool("dry-run")).MergeTags(paths, sources, target)
	printChanges(changes)
	return err
}

func runProperties(ctx context.Context, cmd *cli.Command) error {
	scanner, store, cfg, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	key := cmd.String("key")
	if key == "" {
		rep, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		if len(rep.Properties.Inconsistencies) == 0 {
			fmt.Println("no property inconsistencies found")
			return nil
		}
		for _, inc := range rep.Properties.Inconsistencies {
			fmt.Printf("%s: %s (%s)\n", inc.Key, strings.Join(inc.Variants, ", "), inc.Reason)
		}
		return nil
	}

	valueMap := map[string]string{}
	for _, rule := range cmd.StringSlice("map") {
		old, updated, ok := strings.Cut(rule, "=")
		if !ok {
			return fmt.Errorf("bad --map rule %q (want old=new)", rule)
		}
		valueMap[old] = updated
	}

	paths, err := notePaths(store, cfg)
	if err != nil {
		return err
	}
	changes, err := fix.New(store, cmd.Bool("dry-run")).
		StandardizeProperty(paths, key, cmd.String("rename-to"), valueMap)
	printChanges(changes)
	return err
}

func runOrganize(ctx context.Context, cmd *cli.Command) error {
	scanner, _, _, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	org := rep.Organization
	for _, g := range org.ByDate {
		fmt.Printf("folder %04d/%02d: %d date-named notes\n", g.Year, g.Month, len(g.Notes))
	}
	for _, g := range org.ByTopic {
		fmt.Printf("folder %s: %d notes tagged #%s\n", g.Tag, len(g.Notes), g.Tag)
	}
	if w := org.FlatWarning; w != nil {
		fmt.Printf("flat structure: %d of %d notes live in the vault root (%.0f%%)\n",
			w.RootNotes, w.TotalNotes, w.Fraction*100)
	}
	if len(org.ByDate) == 0 && len(org.ByTopic) == 0 && org.FlatWarning == nil {
		fmt.Println("no organization suggestions")
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunServer(ctx, internal.WithConfig(cfg))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	scanner, _, _, cleanup, err := newScanner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return mcpserver.New(scanner).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "vaultmaint",
		Usage: "Obsidian vault maintenance: link analysis, repair suggestions, tag and property cleanup",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault path (overrides config)",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Scan the vault and print a full report",
				Action: runScan,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Usage: "terminal, markdown, or json", Value: "terminal"},
					&cli.StringFlag{Name: "save-to", Usage: "Write the report to a file instead of stdout"},
					&cli.BoolFlag{Name: "watch", Usage: "Keep running and rescan on file changes"},
				},
			},
			{
				Name:   "fix",
				Usage:  "Repair broken links, either one explicit link or every top suggestion",
				Action: runFix,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Usage: "Note path containing the broken link"},
					&cli.StringFlag{Name: "old", Usage: "Broken link target to replace"},
					&cli.StringFlag{Name: "new", Usage: "Replacement link target"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show diffs without writing"},
				},
			},
			{
				Name:   "tags",
				Usage:  "List similar tags, or merge tags across the vault",
				Action: runTags,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "merge", Usage: "Source tag to merge (repeatable)"},
					&cli.StringFlag{Name: "into", Usage: "Target tag for --merge"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show diffs without writing"},
				},
			},
			{
				Name:   "properties",
				Usage:  "List property inconsistencies, or standardize a property key",
				Action: runProperties,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "Property key to standardize"},
					&cli.StringFlag{Name: "rename-to", Usage: "New name for the key"},
					&cli.StringSliceFlag{Name: "map", Usage: "Value rewrite rule old=new (repeatable)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show diffs without writing"},
				},
			},
			{
				Name:  "report",
				Usage: "Generate a Markdown maintenance report",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					scanner, _, _, cleanup, err := newScanner(cmd)
					if err != nil {
						return err
					}
					defer cleanup()
					rep, err := scanner.Scan(ctx)
					if err != nil {
						return err
					}
					return writeOutput(report.Markdown(rep), cmd.String("save-to"))
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save-to", Usage: "Write the report to a file instead of stdout"},
				},
			},
			{
				Name:   "organize",
				Usage:  "Print folder organization suggestions",
				Action: runOrganize,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP report server",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault analysis tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
