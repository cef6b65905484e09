package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/guangxiangdebizi/tradingagents/internal/config"
	"github.com/guangxiangdebizi/tradingagents/internal/replay"
)

// Run replays a recorded journal for forensic analysis.
func (c *ShowCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	opts := []replay.Option{}
	if c.Cost != "" {
		inPrice, outPrice, err := parsePricing(c.Cost)
		if err != nil {
			return fmt.Errorf("invalid --cost spec %q: %w", c.Cost, err)
		}
		opts = append(opts, replay.WithPricing(inPrice, outPrice))
	}

	r := replay.New(os.Stdout, c.Verbose, opts...)
	path := resolveJournal(cfg, c.RunID)

	// Use interactive pager when stdout is a TTY and not disabled
	if !c.NoPager && isTerminal(os.Stdout) {
		return r.ReplayFileInteractive(path)
	}
	return r.ReplayFile(path)
}

// Run follows a journal live while its run executes elsewhere.
func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}
	r := replay.New(os.Stdout, c.Verbose)
	return r.ReplayFileLive(resolveJournal(cfg, c.RunID))
}

// resolveJournal maps a run id to its journal file under the storage
// root. Anything that already looks like a path passes through.
func resolveJournal(cfg *config.Config, arg string) string {
	if strings.HasSuffix(arg, ".jsonl") || strings.ContainsRune(arg, os.PathSeparator) {
		return arg
	}
	return filepath.Join(cfg.StoragePath(), "journals", arg+".jsonl")
}
