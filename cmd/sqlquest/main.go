package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "sqlquestd.pid"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "config":
		err = cmdConfig()
	case "tasks":
		err = cmdTasks(args)
	case "db":
		err = cmdDatabases(args)
	case "check":
		err = cmdCheck(args)
	case "hint":
		err = cmdHint(args)
	case "solution":
		err = cmdSolution(args)
	case "progress":
		err = cmdProgress()
	case "reset":
		err = cmdReset(args)
	case "verify":
		err = cmdVerify()
	case "export":
		err = cmdExport(args)
	case "import":
		err = cmdImport(args)
	case "snapshots":
		err = cmdSnapshots(args)
	case "history":
		err = cmdHistory(args)
	case "leaderboard":
		err = cmdLeaderboard(args)
	case "forget":
		err = cmdForget(args)
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("sqlquest %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`SQLQuest - SQL practice with XP, streaks and badges

Usage:
  sqlquest <command> [arguments]

Setup Commands:
  init                   Create ~/.sqlquest and a default config
  config                 Show the effective configuration
  verify                 Check every reference query against itself

Daemon Commands:
  start                  Start the SQLQuest daemon
  stop                   Stop the SQLQuest daemon
  status                 Show daemon status
  logs                   View daemon logs

Practice Commands:
  tasks [topic]          List tasks, optionally for one topic
  db [id]                List databases or show one schema
  check <task> <sql|->   Check a query ("-" reads it from stdin)
  hint <task> <1-3>      Reveal a hint (costs XP)
  solution <task>        Reveal the reference query (no XP for the task)
  progress               Show XP, level, streak and badges
  reset --yes            Discard all progress
  export [dir]           Write progress as a JSON snapshot
  import <file>          Merge a JSON snapshot into progress
  snapshots [delete id]  List exported snapshots or delete one

Stats Commands:
  history [task]         Show recent submissions
  leaderboard [n]        Rank learners sharing this progress database
  forget <id> --yes      Remove another learner's progress

Integration Commands:
  mcp                    Start MCP server on stdio

Other:
  help                   Show this help message
  version                Show version information

Examples:
  sqlquest tasks join
  sqlquest check select_all_artists "SELECT * FROM artists"
  echo "SELECT * FROM artists" | sqlquest check select_all_artists -
  sqlquest hint select_all_artists 1`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
