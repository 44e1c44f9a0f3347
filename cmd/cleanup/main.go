// Command cleanup is the scheduled maintenance surface of the messaging
// engine: it sweeps expired messages and their notifications, and can
// additionally backfill missing expiry dates and remove orphaned
// notifications.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/hazemadel/edumsg/internal/config"
	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/models"
	"github.com/hazemadel/edumsg/internal/sweeper"
)

// options are the parsed command-line knobs. Flag defaults come from
// the loaded configuration, so SWEEP_INCLUDE_READ and
// SWEEP_RETENTION_DAYS steer scheduled runs without arguments.
type options struct {
	dryRun        bool
	days          int
	includeRead   bool
	cleanOrphaned bool
	fixExpiry     bool
}

func parseFlags(cfg *config.Config, args []string) (*options, error) {
	fs := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
	opts := &options{}
	fs.BoolVar(&opts.dryRun, "dry-run", false, "report what would be deleted without deleting")
	fs.IntVar(&opts.days, "days", cfg.SweepRetentionDays, "retention window in days")
	fs.BoolVar(&opts.includeRead, "include-read", cfg.SweepIncludeRead, "also delete read messages that have expired")
	fs.BoolVar(&opts.cleanOrphaned, "clean-orphaned", false, "delete notifications that no longer have a message")
	fs.BoolVar(&opts.fixExpiry, "fix-expiry", false, "backfill missing expiry dates")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}

	opts, err := parseFlags(cfg, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts *options) error {
	store, err := database.NewStore(database.StoreType(cfg.StoreType), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	sw := sweeper.New(store)

	fmt.Println("Starting expired message cleanup...")
	if opts.dryRun {
		fmt.Println("Dry run: nothing will be deleted")
	}

	report, err := sw.Run(sweeper.Options{
		RetentionDays: opts.days,
		IncludeRead:   opts.includeRead,
		DryRun:        opts.dryRun,
	})
	if err != nil {
		return err
	}

	printReport(report)

	if opts.cleanOrphaned {
		orphans, err := sw.CleanOrphans(opts.dryRun)
		if err != nil {
			return err
		}
		if opts.dryRun {
			fmt.Printf("Orphaned notifications that would be deleted: %d\n", orphans)
		} else {
			fmt.Printf("Orphaned notifications deleted: %d\n", orphans)
		}
	}

	if opts.fixExpiry {
		fixed, err := sw.BackfillExpiry(opts.dryRun)
		if err != nil {
			return err
		}
		if opts.dryRun {
			fmt.Printf("Messages missing an expiry date: %d\n", fixed)
		} else {
			fmt.Printf("Expiry dates backfilled: %d\n", fixed)
		}
	}

	return nil
}

func printReport(report *sweeper.Report) {
	fmt.Printf("Expired messages matched: %d (read: %d, unread: %d)\n",
		report.Matched, report.ReadMatched, report.UnreadMatched)

	if len(report.Sample) > 0 {
		fmt.Println("Sample of matched messages:")
		for _, title := range report.Sample {
			fmt.Printf("  - %s\n", title)
		}
		if report.Matched > len(report.Sample) {
			fmt.Printf("  ... and %d more\n", report.Matched-len(report.Sample))
		}
	}

	printBreakdown("By sender role:", report.BySenderRole)
	printBreakdown("By receiver role:", report.ByReceiverRole)

	if report.DryRun {
		fmt.Println("Dry run complete: no data was deleted")
		return
	}

	fmt.Printf("Deleted %d messages and %d notifications\n",
		report.MessagesDeleted, report.NotificationsDeleted)
}

func printBreakdown(label string, counts map[models.Role]int) {
	if len(counts) == 0 {
		return
	}

	roles := make([]string, 0, len(counts))
	for role := range counts {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	fmt.Println(label)
	for _, role := range roles {
		fmt.Printf("  %s: %d\n", role, counts[models.Role(role)])
	}
}
