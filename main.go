// Command profilegen builds camera color profiles from paired RAW/JPEG
// captures. For every camera model and color style found under the input
// directory it fits a polynomial color transform from the neutral RAW
// rendering to the camera's JPEG rendering, rasterizes the transform into a
// 3D LUT, and writes it as a .cube file.
//
// Usage:
//
//	profilegen [flags] <capture-dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/trussc/profilegen/internal/config"
	"github.com/trussc/profilegen/internal/fit"
	"github.com/trussc/profilegen/internal/profiledb"
	"github.com/trussc/profilegen/internal/rawproc"
	"github.com/trussc/profilegen/internal/report"
	"github.com/trussc/profilegen/internal/scan"
	"github.com/trussc/profilegen/internal/version"
)

var (
	outputDir   = flag.String("output-dir", "", "Directory for generated .cube files (default ~/.trussc/profiles)")
	lutSize     = flag.Int("size", 0, "LUT grid size per axis (default from config, 64)")
	polyOrder   = flag.Int("order", 0, "Polynomial order 2-4 (default from config, 3)")
	configPath  = flag.String("config", "", "Path to tuning config JSON")
	dbPath      = flag.String("db", "", "Profile database path (default <output-dir>/profiles.db)")
	reportDir   = flag.String("report-dir", "", "Write HTML reports and residual plots to this directory")
	serveAddr   = flag.String("serve", "", "Serve the profile dashboard at this address after the run (e.g. :8080)")
	dryRun      = flag.Bool("dry-run", false, "Fit and report but write no .cube files or database rows")
	force       = flag.Bool("force", false, "Overwrite existing .cube files")
	useEmbedded = flag.Bool("embedded", false, "Use embedded RAW previews when no JPEG sibling exists")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("profilegen %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <capture-dir>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputDir := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, inputDir); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, inputDir string) error {
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	params := fit.Params{
		Order:          cfg.GetPolyOrder(),
		SigmaK:         cfg.GetSigmaK(),
		ClipRounds:     cfg.GetClipRounds(),
		MinSurvivorPct: cfg.GetMinSurvivorPct(),
		MaxSamples:     cfg.GetMaxFitSamples(),
	}
	if *polyOrder != 0 {
		params.Order = *polyOrder
	}
	size := cfg.GetLUTSize()
	if *lutSize != 0 {
		size = *lutSize
	}
	if err := params.Validate(); err != nil {
		return err
	}

	outDir := *outputDir
	if outDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		outDir = filepath.Join(home, ".trussc", "profiles")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if err := rawproc.Available(); err != nil {
		return err
	}

	var db *profiledb.DB
	if !*dryRun {
		path := *dbPath
		if path == "" {
			path = filepath.Join(outDir, "profiles.db")
		}
		var err error
		db, err = profiledb.NewDB(path)
		if err != nil {
			return fmt.Errorf("opening profile database: %w", err)
		}
		defer db.Close()
		if err := db.MigrateUp(); err != nil {
			return err
		}
	}

	scanner := &scan.Scanner{AllowEmbedded: *useEmbedded}
	groups, err := scanner.Scan(ctx, inputDir)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("no RAW/JPEG pairs found under %s", inputDir)
	}
	log.Printf("found %d camera/style groups under %s", len(groups), inputDir)

	opts := groupOptions{
		params:              params,
		lutSize:             size,
		brightnessThreshold: cfg.GetBrightnessThreshold(),
		outputDir:           outDir,
		reportDir:           *reportDir,
		dryRun:              *dryRun,
		force:               *force,
		db:                  db,
	}

	var results []groupResult
	failures := 0
	for _, g := range groups {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := processGroup(ctx, g, opts)
		if err != nil {
			log.Printf("group %s failed: %v", g.Name(), err)
			failures++
			continue
		}
		results = append(results, res)
	}

	printSummary(results)

	if *serveAddr != "" && db != nil {
		log.Printf("serving profile dashboard at %s", *serveAddr)
		srv := &http.Server{Addr: *serveAddr, Handler: report.NewServer(db)}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d groups failed", failures, len(groups))
	}
	return nil
}

func printSummary(results []groupResult) {
	if len(results) == 0 {
		return
	}
	fmt.Printf("\n%-32s %10s %10s %8s %8s  %s\n",
		"PROFILE", "SAMPLES", "INLIERS", "MAE", "RMSE", "OUTPUT")
	for _, r := range results {
		out := r.cubePath
		if out == "" {
			out = "(dry run)"
		}
		fmt.Printf("%-32s %10d %10d %8.4f %8.4f  %s\n",
			r.name, r.fit.SampleCount, r.fit.InlierCount, r.fit.MAE, r.fit.RMSE, out)
		bp := r.fit.Model.BlackPoint()
		fmt.Printf("  black point offset: %+.4f %+.4f %+.4f\n", bp[0], bp[1], bp[2])
		for _, w := range r.fit.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for _, adv := range r.advisories {
			fmt.Printf("  coverage: %s\n", adv)
		}
	}
}
