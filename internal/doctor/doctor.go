// Package doctor runs health checks of the configuration, the database and
// the stored locations.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/agent-platform/tools/tzcompare/internal/config"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/store"
	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

// Status represents the result of a health check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
}

// Check is a single health check function.
type Check func(cfg *config.Config, configPath string) Result

const checkTimeout = 10 * time.Second

// Run executes all checks and prints a diagnostic report. It returns the
// number of failed checks.
func Run(w io.Writer, cfg *config.Config, configPath string) int {
	checks := []Check{
		CheckConfigPermissions,
		CheckConfigValues,
		CheckHomeZone,
		CheckZoneTable,
		CheckDatabase,
		CheckStoredLocations,
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("  tzcompare doctor"))
	fmt.Fprintln(w)

	var fails int
	for _, check := range checks {
		result := check(cfg, configPath)
		fmt.Fprintf(w, "  %s  %s\n", statusIcon(result.Status), result.Message)
		if result.Status == StatusFail {
			fails++
		}
	}

	fmt.Fprintln(w)
	if fails == 0 {
		fmt.Fprintln(w, color.GreenString("  All checks passed!"))
	} else {
		fmt.Fprintln(w, color.RedString("  %d check(s) failed", fails))
	}
	fmt.Fprintln(w)
	return fails
}

func statusIcon(s Status) string {
	switch s {
	case StatusPass:
		return color.GreenString("PASS")
	case StatusWarn:
		return color.YellowString("WARN")
	case StatusFail:
		return color.RedString("FAIL")
	default:
		return "????"
	}
}

// CheckConfigPermissions verifies the config file exists and is not
// writable by other users.
func CheckConfigPermissions(_ *config.Config, configPath string) Result {
	info, err := os.Stat(configPath)
	if err != nil {
		return Result{Name: "config_permissions", Status: StatusFail,
			Message: fmt.Sprintf("Config file: cannot stat %s: %v", configPath, err)}
	}
	perm := info.Mode().Perm()
	if perm&0o022 != 0 {
		return Result{Name: "config_permissions", Status: StatusWarn,
			Message: fmt.Sprintf("Config file: %s is %o (writable by other users)", configPath, perm)}
	}
	return Result{Name: "config_permissions", Status: StatusPass,
		Message: fmt.Sprintf("Config file: %s permissions OK (%o)", configPath, perm)}
}

// CheckConfigValues validates the loaded configuration.
func CheckConfigValues(cfg *config.Config, _ string) Result {
	if err := cfg.Validate(tz.NewResolver()); err != nil {
		return Result{Name: "config_values", Status: StatusFail,
			Message: fmt.Sprintf("Config values: %v", err)}
	}
	return Result{Name: "config_values", Status: StatusPass,
		Message: fmt.Sprintf("Config values: OK (%d seed location(s))", len(cfg.Seed))}
}

// CheckHomeZone reports which zone the home entry will use.
func CheckHomeZone(cfg *config.Config, _ string) Result {
	r := tz.NewResolver()
	if cfg.HomeTimezone != "" {
		if !r.IsValid(cfg.HomeTimezone) {
			return Result{Name: "home_zone", Status: StatusFail,
				Message: fmt.Sprintf("Home zone: configured %q is not a known time zone", cfg.HomeTimezone)}
		}
		return Result{Name: "home_zone", Status: StatusPass,
			Message: fmt.Sprintf("Home zone: %s (configured)", r.Resolve(cfg.HomeTimezone))}
	}

	zone := r.Detect()
	if zone == "UTC" && os.Getenv("TZ") == "" {
		return Result{Name: "home_zone", Status: StatusWarn,
			Message: "Home zone: could not detect a local zone, using UTC (set home_timezone or $TZ)"}
	}
	return Result{Name: "home_zone", Status: StatusPass,
		Message: fmt.Sprintf("Home zone: %s (detected)", zone)}
}

// CheckZoneTable verifies every display name and abbreviation maps to a
// zone the time zone database knows.
func CheckZoneTable(_ *config.Config, _ string) Result {
	r := tz.NewResolver()
	zones := tz.Zones()
	var bad []string
	for _, z := range zones {
		if !r.IsValid(z.ID) {
			bad = append(bad, fmt.Sprintf("%s -> %s", z.Name, z.ID))
		}
	}
	if len(bad) > 0 {
		return Result{Name: "zone_table", Status: StatusFail,
			Message: fmt.Sprintf("Zone table: %d unknown zone(s)\n         %s", len(bad), strings.Join(bad, "\n         "))}
	}
	return Result{Name: "zone_table", Status: StatusPass,
		Message: fmt.Sprintf("Zone table: %d name(s) resolve", len(zones))}
}

// CheckDatabase verifies the database is reachable and intact.
func CheckDatabase(cfg *config.Config, _ string) Result {
	if cfg.Database == "" {
		return Result{Name: "database", Status: StatusFail,
			Message: "Database: path not configured"}
	}
	if missingSQLite(cfg.Database) {
		return Result{Name: "database", Status: StatusWarn,
			Message: fmt.Sprintf("Database: %s does not exist (will be created on first use)", cfg.Database)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return Result{Name: "database", Status: StatusFail,
			Message: fmt.Sprintf("Database: cannot open %s: %v", redact(cfg.Database), err)}
	}
	defer db.Close()

	if err := db.Check(ctx); err != nil {
		return Result{Name: "database", Status: StatusFail,
			Message: fmt.Sprintf("Database: %v", err)}
	}
	return Result{Name: "database", Status: StatusPass,
		Message: fmt.Sprintf("Database: %s (%s) OK", redact(cfg.Database), db.Dialect())}
}

// CheckStoredLocations decodes the saved snapshot and reports malformed
// records and labels that do not resolve.
func CheckStoredLocations(cfg *config.Config, _ string) Result {
	if cfg.Database == "" || missingSQLite(cfg.Database) {
		return Result{Name: "locations", Status: StatusWarn,
			Message: "Locations: nothing saved yet"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return Result{Name: "locations", Status: StatusFail,
			Message: fmt.Sprintf("Locations: cannot open database: %v", err)}
	}
	defer db.Close()

	data, err := db.Get(ctx, locations.StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Name: "locations", Status: StatusWarn,
			Message: "Locations: nothing saved yet"}
	}
	if err != nil {
		return Result{Name: "locations", Status: StatusFail,
			Message: fmt.Sprintf("Locations: %v", err)}
	}

	snap, dropped, err := locations.DecodeSnapshot(data)
	if err != nil {
		return Result{Name: "locations", Status: StatusFail,
			Message: fmt.Sprintf("Locations: saved state is unreadable and will be replaced: %v", err)}
	}

	r := tz.NewResolver()
	var issues []string
	if dropped > 0 {
		issues = append(issues, fmt.Sprintf("%d malformed record(s) will be dropped", dropped))
	}
	homes := 0
	for _, loc := range snap.Locations {
		if loc.IsCurrent {
			homes++
		}
		if !r.IsValid(loc.Label) {
			issues = append(issues, fmt.Sprintf("%s: unknown time zone %q (shown in local time)", loc.Name, loc.Label))
		}
	}
	if homes == 0 {
		issues = append(issues, "no home entry (one will be added)")
	}

	if len(issues) > 0 {
		msg := fmt.Sprintf("Locations: %d saved, %d issue(s)", len(snap.Locations), len(issues))
		for _, i := range issues {
			msg += fmt.Sprintf("\n         %s", i)
		}
		return Result{Name: "locations", Status: StatusWarn, Message: msg}
	}
	msg := fmt.Sprintf("Locations: %d saved OK", len(snap.Locations))
	if at, err := db.UpdatedAt(ctx, locations.StorageKey); err == nil {
		msg += fmt.Sprintf(" (last saved %s)", at.Local().Format("2006-01-02 15:04"))
	}
	return Result{Name: "locations", Status: StatusPass, Message: msg}
}

func missingSQLite(dsn string) bool {
	if store.DetectDialect(dsn) != store.DialectSQLite {
		return false
	}
	_, err := os.Stat(dsn)
	return errors.Is(err, os.ErrNotExist)
}

// redact hides the password of a database URL.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		return scheme + "://" + user + ":***@" + host
	}
	return dsn
}
