package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
)

// Run lists recorded runs from the journal store, newest first.
func (c *RunsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	store, err := session.NewFileStore(filepath.Join(cfg.StoragePath(), "journals"))
	if err != nil {
		return fmt.Errorf("opening journal store: %w", err)
	}
	ids, err := store.List()
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-38s %-8s %-12s %-10s %s\n", "RUN", "SUBJECT", "AS OF", "STATUS", "CREATED")
	for i, id := range ids {
		if c.Limit > 0 && i == c.Limit {
			fmt.Printf("... and %d more\n", len(ids)-c.Limit)
			break
		}
		j, err := store.Load(id)
		if err != nil {
			fmt.Printf("%-38s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Printf("%-38s %-8s %-12s %-10s %s\n",
			j.RunID, j.Subject, j.AsOfDate, j.Status, j.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Run prints the stored decision record for a settled run.
func (c *ResultCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	store, err := snapshot.NewStore(filepath.Join(cfg.StoragePath(), "snapshots"))
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	record, err := store.LoadRun(c.RunID)
	if err != nil {
		return err
	}

	rs := record.State
	if rs.FinalResult == nil {
		if fatal := rs.FatalError(); fatal != nil {
			return fmt.Errorf("run %s failed at %s (%s): %s", c.RunID, fatal.Node, fatal.Kind, fatal.Message)
		}
		return fmt.Errorf("run %s is %s; no decision recorded", c.RunID, rs.Status)
	}

	output, _ := json.MarshalIndent(rs.FinalResult, "", "  ")
	fmt.Println(string(output))
	return nil
}

// Run lists the role catalog, marking overridden prompts.
func (c *RolesCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	dir := c.Dir
	if dir == "" {
		dir = cfg.Trading.RolesDir
	}
	catalog := roles.NewCatalog()
	if dir != "" {
		if err := catalog.LoadOverrides(dir); err != nil {
			return fmt.Errorf("loading role overrides: %w", err)
		}
	}

	fmt.Println("Roles:")
	for _, role := range roles.All {
		tmpl, err := catalog.Get(role)
		if err != nil {
			continue
		}
		fmt.Printf("  - %-14s %s", role, tmpl.Name)
		if tmpl.Description != "" {
			fmt.Printf(" - %s", tmpl.Description)
		}
		if tmpl.Path != "" {
			fmt.Printf(" [override: %s]", tmpl.Path)
		}
		fmt.Println()
		if c.Verbose {
			fmt.Println()
			fmt.Println(indent(tmpl.Prompt, "      "))
		}
	}
	return nil
}
