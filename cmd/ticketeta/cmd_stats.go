package main

import (
	"context"
	"flag"
	"fmt"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	jsonFlag := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.engine.Stats(context.Background())

	if *jsonFlag {
		return printJSON(stats)
	}

	if len(stats) == 0 {
		fmt.Println("No backends configured.")
		return nil
	}

	fmt.Printf("%-10s  %-8s  %s\n", "Backend", "Healthy", "Documents")
	for _, s := range stats {
		healthy := "yes"
		if !s.Healthy {
			healthy = "no"
		}
		fmt.Printf("%-10s  %-8s  %d\n", s.Name, healthy, s.Count)
		if s.Error != "" {
			fmt.Printf("  error: %s\n", s.Error)
		}
	}
	return nil
}
