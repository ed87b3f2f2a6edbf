package main

import (
	"context"
	"io"

	"github.com/fwojciec/innsearch"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Inventory innsearch.InventoryService
	Searcher  innsearch.SearchService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DataDir string `env:"INNSEARCH_DATA" default:"data" help:"Directory holding cached chapter files"`
	TOCURL  string `env:"INNSEARCH_TOC" default:"https://wanderinginn.com/table-of-contents/" help:"Table of contents URL"`

	Reset  ResetCmd  `cmd:"" help:"Re-crawl the full corpus from the table of contents"`
	Update UpdateCmd `cmd:"" help:"Fetch newly appended chapters"`
	Patch  PatchCmd  `cmd:"" help:"Re-fetch a single chapter by index"`
	Search SearchCmd `cmd:"" help:"Score all chapters against a comma-separated query"`
	Serve  ServeCmd  `cmd:"" help:"Run the HTTP search server"`
}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct {
	BatchSize int    `short:"b" default:"8" help:"Chapters fetched per batch"`
	Pause     string `default:"10m" help:"Pause between fetch batches (Go duration)"`
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct {
	BatchSize int    `short:"b" default:"8" help:"Chapters fetched per batch"`
	Pause     string `default:"10m" help:"Pause between fetch batches (Go duration)"`
}

// PatchCmd is the "patch" subcommand.
type PatchCmd struct {
	Index int `arg:"" help:"Zero-based chapter index to re-fetch"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Comma-separated search terms"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr          string `default:":3000" env:"INNSEARCH_ADDR" help:"Listen address"`
	AdminPassword string `env:"INNSEARCH_ADMIN_PASSWORD" help:"Shared secret gating admin endpoints"`
}
