// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Config file path (default: ./tradingagents.toml)" type:"path"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" help:"Run a trading decision workflow"`
	Resume  ResumeCmd  `cmd:"" help:"Resume an aborted run from its last snapshot"`
	Runs    RunsCmd    `cmd:"" help:"List recorded runs"`
	Result  ResultCmd  `cmd:"" help:"Print the stored decision for a run"`
	Show    ShowCmd    `cmd:"" help:"Replay a run journal for forensic analysis"`
	Watch   WatchCmd   `cmd:"" help:"Follow a run journal while it is written"`
	Roles   RolesCmd   `cmd:"" help:"List the agent role catalog"`
	Serve   ServeCmd   `cmd:"" help:"Serve the run control API over HTTP"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RunCmd executes one decision workflow and waits for the verdict.
type RunCmd struct {
	Subject      string   `arg:"" help:"Ticker or instrument to evaluate"`
	Date         string   `short:"d" help:"Trading day (YYYY-MM-DD, default: today)" placeholder:"DATE"`
	Analysts     []string `short:"a" help:"Analyst roster (market, fundamentals, news, social)"`
	DebateRounds int      `help:"Bull/bear debate rounds (overrides config)"`
	RiskRounds   int      `help:"Risk review rounds (overrides config)"`
	Timeout      string   `help:"Abort the run after this duration" placeholder:"DURATION"`
	Quiet        bool     `short:"q" help:"Suppress progress output"`
}

// ResumeCmd restarts an aborted run from its snapshot.
type ResumeCmd struct {
	RunID   string `arg:"" help:"Run to resume"`
	Timeout string `help:"Abort the run after this duration" placeholder:"DURATION"`
	Quiet   bool   `short:"q" help:"Suppress progress output"`
}

// RunsCmd lists recorded runs, newest first.
type RunsCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum runs to list (0 for all)"`
}

// ResultCmd prints the stored decision record for a settled run.
type ResultCmd struct {
	RunID string `arg:"" help:"Run to inspect"`
}

// ShowCmd replays a run journal.
type ShowCmd struct {
	RunID   string `arg:"" name:"run" help:"Run id or journal path"`
	Verbose int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
	NoPager bool   `help:"Disable pager for output"`
	Cost    string `help:"Token pricing per 1M: input,output" placeholder:"IN,OUT"`
}

// WatchCmd follows a journal while its run executes.
type WatchCmd struct {
	RunID   string `arg:"" name:"run" help:"Run id or journal path"`
	Verbose int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
}

// RolesCmd lists the role prompt catalog.
type RolesCmd struct {
	Dir     string `help:"Prompt overrides directory (default: from config)"`
	Verbose bool   `short:"v" help:"Print full prompt text"`
}

// ServeCmd runs the HTTP control API.
type ServeCmd struct {
	Listen    string `default:":8321" help:"Listen address"`
	Tailscale bool   `help:"Listen on the tailnet instead of a local address"`
	Hostname  string `default:"tradingagents" help:"Tailnet hostname (with --tailscale)"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
