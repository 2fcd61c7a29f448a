package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/refill/internal/batch"
	"github.com/roach88/refill/internal/engine"
	"github.com/roach88/refill/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <batch-file>",
		Short: "Load a batch of records into the store",
		Long: `Load a YAML batch description into a SQLite database.

Records are processed in declared order. Reference fields resolve to the
identifiers of earlier records ({ref: ...}) or of pre-existing rows matched
by column equality ({lookup: ...}). Assigned identifiers are printed when
the batch completes.

There is no batch-wide transaction: a failure leaves earlier writes
committed, and the output shows how far the batch progressed.

Example:
  refill load --db ./app.db ./seed.yaml
  refill load --db /tmp/test.db ./fixtures/users.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, batchPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cb, err := ParseBatchFile(batchPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid batch file", err)
	}
	formatter.VerboseLog("Parsed %d table(s) from %s", len(cb.Tables), batchPath)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(st, engine.WithLogger(logger))
	insertErr := eng.Insert(ctx, cb)

	// Assigned identifiers are reported even on failure: they show exactly
	// how far the batch progressed before the first fatal error.
	assigned, err := snapshotJSON(eng.Registry())
	if err != nil {
		return WrapExitError(ExitFailure, "render registry", err)
	}

	if insertErr != nil {
		_ = formatter.Error(string(errCode(insertErr)), insertErr.Error(), assigned)
		return WrapExitError(ExitFailure, "batch load failed", insertErr)
	}

	for _, d := range eng.Diagnostics() {
		formatter.VerboseLog("diagnostic: %s", d)
	}

	if opts.Format == "json" {
		return formatter.Success(assigned)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderAssignedText(assigned))
	return nil
}

func errCode(err error) engine.LoadErrorCode {
	switch {
	case engine.IsRefNotFound(err):
		return engine.ErrCodeRefNotFound
	case engine.IsRefLookupFailed(err):
		return engine.ErrCodeRefLookupFailed
	case engine.IsWriteFailed(err):
		return engine.ErrCodeWriteFailed
	default:
		return "ERROR"
	}
}

// snapshotJSON renders the registry as table -> local id -> identifier with
// identifiers in their JSON form.
func snapshotJSON(reg *engine.Registry) (map[string]map[string]json.RawMessage, error) {
	out := make(map[string]map[string]json.RawMessage)
	for table, byID := range reg.Snapshot() {
		m := make(map[string]json.RawMessage, len(byID))
		for localID, id := range byID {
			b, err := batch.MarshalValue(id)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", table, localID, err)
			}
			m[localID] = b
		}
		out[table] = m
	}
	return out, nil
}

func renderAssignedText(assigned map[string]map[string]json.RawMessage) string {
	var sb strings.Builder
	tables := make([]string, 0, len(assigned))
	for t := range assigned {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		ids := make([]string, 0, len(assigned[t]))
		for id := range assigned[t] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "%s/%s = %s\n", t, id, assigned[t][id])
		}
	}
	return sb.String()
}
