package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ticketgate/internal/domain/credential"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/scanner"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// Scanner-side companion binary: downloads the per-event cache, validates
// presented credentials fully offline, and syncs queued claims back once
// connectivity returns.
func main() {
	var (
		serverURL = pflag.String("server", "http://localhost:8888", "server base URL")
		email     = pflag.String("email", "", "scanner account email")
		pass      = pflag.String("password", "", "scanner account password")
		deviceID  = pflag.String("device", "", "device identifier recorded on every check-in")
		cachePath = pflag.String("cache", "scanner.db", "path to the local cache file")
		eventStr  = pflag.String("event", "", "event id to download the cache for")
		download  = pflag.Bool("download", false, "download a fresh cache snapshot")
		sync      = pflag.Bool("sync", false, "upload queued offline claims")
		validate  = pflag.String("validate", "", "validate a presented credential token offline")
	)
	pflag.Parse()

	if err := run(*serverURL, *email, *pass, *deviceID, *cachePath, *eventStr, *download, *sync, *validate); err != nil {
		slog.Error("scanner command failed", "error", err)
		os.Exit(1)
	}
}

func run(serverURL, email, pass, deviceID, cachePath, eventStr string, download, sync bool, validate string) error {
	cache, err := scanner.OpenCache(cachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()

	if validate != "" {
		validator := scanner.NewValidator(cache, clock.NewRealClock(), credential.DefaultParams())
		decision, err := validator.Validate(validate)
		if err != nil {
			return err
		}
		if decision.Outcome == scanner.OutcomeNeedsOnline && email != "" {
			return escalateOnline(cache, serverURL, email, pass, deviceID, validate, decision)
		}
		printDecision(decision)
		return nil
	}

	if !download && !sync {
		pflag.Usage()
		return fmt.Errorf("nothing to do: pass --download, --sync or --validate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := scanner.NewClient(serverURL)
	if err := client.Login(ctx, email, pass, deviceID); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if download {
		eventID, err := uuid.Parse(eventStr)
		if err != nil {
			return fmt.Errorf("invalid --event id: %w", err)
		}
		snap, err := client.DownloadSnapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("snapshot download failed: %w", err)
		}
		if err := cache.ReplaceSnapshot(snap); err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		fmt.Printf("downloaded %d tickets, cache trusted until %s\n",
			len(snap.Tickets), snap.ExpiresAt.Format(time.RFC3339))
	}

	if sync {
		syncer := scanner.NewSyncer(cache, client)
		resolved, err := syncer.Drain(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("resolved %d claims\n", resolved)

		conflicts, err := cache.ClaimsByStatus(scanner.ClaimConflict, 0)
		if err != nil {
			return err
		}
		for _, claim := range conflicts {
			if claim.Winner != nil {
				fmt.Printf("conflict: ticket %s (%s) won by device %s at %s\n",
					claim.TicketID, claim.Reason, claim.Winner.DeviceID,
					claim.Winner.ScannedAt.Format(time.RFC3339))
			} else {
				fmt.Printf("conflict: ticket %s (%s)\n", claim.TicketID, claim.Reason)
			}
		}
	}

	return nil
}

func printDecision(decision scanner.Decision) {
	fmt.Printf("outcome: %s\n", decision.Outcome)
	if decision.Reason != "" {
		fmt.Printf("reason: %s\n", decision.Reason)
	}
	if decision.TicketID != uuid.Nil {
		fmt.Printf("ticket: %s\n", decision.TicketID)
	}
}

// escalateOnline promotes a needs_online_validation decision through the
// server's check-in endpoint, which runs the nonce and counter checks the
// device cannot. A grant is written back into the cache like a local one.
func escalateOnline(cache *scanner.Cache, serverURL, email, pass, deviceID, token string, decision scanner.Decision) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := scanner.NewClient(serverURL)
	if err := client.Login(ctx, email, pass, deviceID); err != nil {
		// Still offline: the decision stands as needs_online_validation.
		printDecision(decision)
		return nil
	}

	eventID, _, _, err := cache.Snapshot()
	if err != nil {
		return err
	}
	result, err := client.CheckIn(ctx, token, eventID)
	if err != nil {
		printDecision(decision)
		return nil
	}

	fmt.Printf("outcome: %s (online)\n", result.Result)
	if result.Reason != "" {
		fmt.Printf("reason: %s\n", result.Reason)
	}
	if result.Winner != nil {
		fmt.Printf("won by device %s at %s\n",
			result.Winner.DeviceID, result.Winner.ScannedAt.Format(time.RFC3339))
	}

	if result.Result == "granted" && result.TicketID != uuid.Nil {
		if err := cache.MarkTicketUsed(result.TicketID); err != nil && !errors.Is(err, scanner.ErrTicketNotCached) {
			return err
		}
	}
	return nil
}
