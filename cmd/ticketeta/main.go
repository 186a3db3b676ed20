package main

import (
	"fmt"
	"os"
)

const usage = `ticketeta - Resolution time estimates for support tickets

Usage:
  ticketeta <command> [options]

Commands:
  init      Generate a .ticketeta.toml configuration file
  estimate  Estimate resolution time for a new ticket
  explain   Show what every search tier answers for a ticket
  add       Record a ticket so future estimates can match it
  list      List indexed tickets
  search    Search indexed tickets
  get       Show one indexed ticket
  stats     Show backend health and document counts
  prune     Remove expired entries from the file cache
  reindex   Re-embed indexed tickets into the vector stores

Use "ticketeta <command> -help" for more information about a command.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = runInit(args)
	case "estimate":
		err = runEstimate(args)
	case "explain":
		err = runExplain(args)
	case "add":
		err = runAdd(args)
	case "list":
		err = runList(args)
	case "search":
		err = runSearch(args)
	case "get":
		err = runGet(args)
	case "stats":
		err = runStats(args)
	case "prune":
		err = runPrune(args)
	case "reindex":
		err = runReindex(args)
	case "-h", "-help", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
