// Command cachectl inspects and maintains the persistent response cache used
// by swotvisd.
//
// Usage:
//
//	go run ./cmd/cachectl -db /var/lib/swotvis/cache.db list
//	go run ./cmd/cachectl -db /var/lib/swotvis/cache.db clear
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/swotvis/swot-data-service/internal/adapter/cache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := flag.String("db", "", "path to the cache database")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -db")
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected one command: list or clear")
	}

	backend, err := cache.NewSQLiteBackend(*dbPath, 0)
	if err != nil {
		return err
	}
	defer backend.Close()

	switch cmd := flag.Arg(0); cmd {
	case "list":
		return list(backend)
	case "clear":
		return clear(backend)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(backend *cache.SQLiteBackend) error {
	entries, err := backend.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("cache is empty")
		return nil
	}

	var total int
	fmt.Printf("%-20s %10s  %s\n", "KEY", "SIZE", "UPDATED")
	for _, e := range entries {
		fmt.Printf("%-20s %10d  %s\n", e.Key, e.Size, e.UpdatedAt)
		total += e.Size
	}
	fmt.Printf("\n%d entries, %d bytes\n", len(entries), total)
	return nil
}

func clear(backend *cache.SQLiteBackend) error {
	if err := backend.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}
