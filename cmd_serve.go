package main

import (
	"fmt"
	"log/slog"
	"os"

	"saucy/share"
)

// runShareServer starts the share/OG server instead of the studio
func runShareServer(addr, dbPath, siteURL string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := share.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening share store: %w", err)
	}
	defer store.Close()

	logger.Info("share server starting", "db", dbPath, "site", siteURL)
	srv := share.NewServer(store, siteURL, logger)
	return srv.ListenAndServe(addr)
}
