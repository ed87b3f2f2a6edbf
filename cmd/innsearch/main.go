package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/innsearch"
	"github.com/fwojciec/innsearch/crawl"
	"github.com/fwojciec/innsearch/fs"
	"github.com/fwojciec/innsearch/goquery"
	innhttp "github.com/fwojciec/innsearch/http"
	"github.com/fwojciec/innsearch/score"
	"github.com/fwojciec/innsearch/search"
	innslog "github.com/fwojciec/innsearch/slog"
	"golang.org/x/time/rate"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Services, exposed for end-to-end testing.
	Inventory innsearch.InventoryService
	Searcher  innsearch.SearchService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("innsearch"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'innsearch --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	inventory := &crawl.Inventory{
		TOC:       nil, // set below, needs the fetcher
		Fetcher:   nil,
		Extractor: goquery.NewExtractor(),
		Store:     fs.NewChapterStore(cli.DataDir),
		Limiter:   rate.NewLimiter(rate.Limit(1.0), 1),
		Logger:    logger,
	}

	fetcher := innhttp.NewFetcher()
	defer fetcher.Close()
	inventory.Fetcher = fetcher
	inventory.TOC = goquery.NewTOCService(fetcher, cli.TOCURL)

	applyCrawlFlags(inventory, kongCtx.Command(), cli)

	m.Inventory = innslog.NewLoggingInventoryService(inventory, logger)
	m.Searcher = innslog.NewLoggingSearchService(&search.Searcher{
		Inventory: m.Inventory,
		Scorer:    score.NewScorer(),
	}, logger)

	deps.Inventory = m.Inventory
	deps.Searcher = m.Searcher

	return kongCtx.Run(deps)
}

// applyCrawlFlags copies the per-command batch flags onto the inventory.
// cmd is kong's resolved command string, e.g. "reset" or "patch <index>".
func applyCrawlFlags(inventory *crawl.Inventory, cmd string, cli *CLI) {
	var batchSize int
	var pause string
	switch cmd {
	case "reset":
		batchSize, pause = cli.Reset.BatchSize, cli.Reset.Pause
	case "update":
		batchSize, pause = cli.Update.BatchSize, cli.Update.Pause
	default:
		return
	}
	inventory.BatchSize = batchSize
	if d, err := time.ParseDuration(pause); err == nil {
		inventory.BatchPause = d
	}
}

// Run executes the reset command.
func (c *ResetCmd) Run(deps *Dependencies) error {
	if err := deps.Inventory.Reset(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", innsearch.ErrorMessage(err))
		return err
	}
	n, err := deps.Inventory.NumChapters(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "corpus reset: %d chapters cached\n", n)
	return nil
}

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	if err := deps.Inventory.Update(deps.Ctx); err != nil {
		if innsearch.ErrorCode(err) == innsearch.ECONFLICT {
			fmt.Fprintf(deps.Stderr, "error: %s\nRun 'innsearch reset' to rebuild the corpus.\n", innsearch.ErrorMessage(err))
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", innsearch.ErrorMessage(err))
		}
		return err
	}
	n, err := deps.Inventory.NumChapters(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "corpus up to date: %d chapters cached\n", n)
	return nil
}

// Run executes the patch command.
func (c *PatchCmd) Run(deps *Dependencies) error {
	if err := deps.Inventory.PatchChapter(deps.Ctx, c.Index); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", innsearch.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "chapter %d rewritten\n", c.Index)
	return nil
}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	results, err := deps.Searcher.Search(deps.Ctx, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", innsearch.ErrorMessage(err))
		return err
	}

	matched := 0
	for _, r := range results {
		if r.Score == 0 {
			continue
		}
		matched++
		fmt.Fprintf(deps.Stdout, "%8.3f  %s  %s\n", r.Score, r.Name, r.URL)
	}
	if matched == 0 {
		fmt.Fprintln(deps.Stdout, "no matching chapters")
	}
	return nil
}
