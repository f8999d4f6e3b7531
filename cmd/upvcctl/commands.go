package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"upvcerp/internal/backup"
	"upvcerp/internal/catalog"
	"upvcerp/internal/core"
	"upvcerp/internal/cutting"
	"upvcerp/internal/report"
	"upvcerp/pkg/domain"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// input opens path, or returns stdin for "" and "-".
func input(a *app, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(a.stdin), "stdin", nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(path), nil
}

func runSnapshot(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("snapshot"), args); err != nil {
		return err
	}
	snap, err := a.svc.Get(ctx)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, snap)
}

func runCommands(_ context.Context, a *app, args []string) error {
	if err := parse(newFlags("commands"), args); err != nil {
		return err
	}
	for _, kind := range core.CommandKinds() {
		fmt.Fprintln(a.stdout, kind)
	}
	return nil
}

// appliedCommand is one line of apply output.
type appliedCommand struct {
	Type     string             `json:"type"`
	Result   any                `json:"result,omitempty"`
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

// runApply reads a JSON array of envelopes, one envelope, or one envelope
// per line, and executes them in order. It stops at the first failure;
// earlier commands stay committed.
func runApply(ctx context.Context, a *app, args []string) error {
	fs := newFlags("apply")
	file := fs.String("f", "-", "file holding command envelopes")
	if err := parse(fs, args); err != nil {
		return err
	}
	rc, _, err := input(a, *file)
	if err != nil {
		return err
	}
	defer rc.Close()
	envelopes, err := readEnvelopes(rc)
	if err != nil {
		return err
	}
	if len(envelopes) == 0 {
		return fmt.Errorf("%w: no commands in input", errUsage)
	}

	log := a.log.With(zap.Int("commands", len(envelopes)))
	for i, raw := range envelopes {
		cmd, err := core.DecodeCommand(raw)
		if err != nil {
			return fmt.Errorf("command %d: %w", i+1, err)
		}
		out, res, err := a.svc.Execute(ctx, cmd)
		if err != nil {
			log.Warn("apply stopped", zap.Int("index", i+1), zap.String("type", cmd.Kind()), zap.Error(err))
			return fmt.Errorf("command %d (%s): %w", i+1, cmd.Kind(), err)
		}
		if err := writeJSON(a.stdout, appliedCommand{Type: cmd.Kind(), Result: out, Warnings: res.Warnings()}); err != nil {
			return err
		}
	}
	return nil
}

func readEnvelopes(r io.Reader) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode command list: %w", err)
		}
		return list, nil
	}
	var list []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var msg json.RawMessage
		err := dec.Decode(&msg)
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode command %d: %w", len(list)+1, err)
		}
		list = append(list, msg)
	}
}

func runImportCatalog(ctx context.Context, a *app, args []string) error {
	fs := newFlags("import-catalog")
	file := fs.String("f", "", "CSV or .xlsx price list")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -f is required", errUsage)
	}
	rc, name, err := input(a, *file)
	if err != nil {
		return err
	}
	defer rc.Close()
	parsed, err := catalog.Parse(name, rc)
	if err != nil {
		return err
	}
	rep, err := catalog.Import(ctx, a.svc, parsed)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "added %d, skipped %d invalid, %d duplicates\n", rep.Added, rep.Skipped, rep.Duplicates)
	return nil
}

func runBackup(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("backup"), args); err != nil {
		return err
	}
	info, err := a.backups.Create(ctx, a.svc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s (%d bytes)\n", info.Key, info.Size)
	return nil
}

func runBackups(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("backups"), args); err != nil {
		return err
	}
	infos, err := a.backups.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tBYTES\tMODIFIED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// runRestore restores from -key, from -f, or from the newest stored backup.
func runRestore(ctx context.Context, a *app, args []string) error {
	fs := newFlags("restore")
	key := fs.String("key", "", "blob key of the backup")
	file := fs.String("f", "", "backup file on disk (- for stdin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *key != "" && *file != "" {
		return fmt.Errorf("%w: use either -key or -f", errUsage)
	}

	var (
		env    backup.Envelope
		source string
		err    error
	)
	switch {
	case *file != "":
		rc, name, oerr := input(a, *file)
		if oerr != nil {
			return oerr
		}
		defer rc.Close()
		source = name
		env, err = backup.RestoreFrom(ctx, rc, a.svc)
	default:
		source = *key
		if source == "" {
			latest, lerr := a.backups.Latest(ctx)
			if lerr != nil {
				return lerr
			}
			source = latest.Key
		}
		env, err = a.backups.Restore(ctx, source, a.svc)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "restored %s (format v%d)\n", source, env.Version)
	return nil
}

func runReset(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reset")
	yes := fs.Bool("yes", false, "confirm the reset")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("%w: reset deletes all data; pass -yes to confirm", errUsage)
	}
	if _, err := a.svc.ResetData(ctx, core.ResetData{}); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "all data reset")
	return nil
}

// inventoryIndex lets the cutting list resolve item names from a snapshot.
type inventoryIndex map[string]domain.InventoryItem

func (i inventoryIndex) FindInventoryItem(id string) (domain.InventoryItem, bool) {
	item, ok := i[id]
	return item, ok
}

func indexInventory(items []domain.InventoryItem) inventoryIndex {
	idx := make(inventoryIndex, len(items))
	for _, item := range items {
		idx[item.ID] = item
	}
	return idx
}

func runCuttingList(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cutting-list")
	orderID := fs.String("order", "", "sales order id")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *orderID == "" {
		return fmt.Errorf("%w: -order is required", errUsage)
	}
	snap, err := a.svc.Get(ctx)
	if err != nil {
		return err
	}
	var order *domain.SalesOrder
	for i := range snap.SalesOrders {
		if strings.EqualFold(snap.SalesOrders[i].ID, *orderID) {
			order = &snap.SalesOrders[i]
			break
		}
	}
	if order == nil {
		return &domain.NotFoundError{Entity: domain.EntitySalesOrder, ID: *orderID}
	}
	list := cutting.ForOrder(indexInventory(snap.Inventory), *order)
	if *asJSON {
		return writeJSON(a.stdout, list)
	}

	w := bufio.NewWriter(a.stdout)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Cutting list for %s\n\nPROFILE\tPART\tLENGTH (mm)\tQTY\n", list.OrderID)
	for _, c := range list.Cuts {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\n", c.Profile, c.Part, c.Length, c.Quantity)
	}
	fmt.Fprintf(tw, "\nHARDWARE\tQTY\n")
	for _, p := range list.Hardware {
		fmt.Fprintf(tw, "%s\t%g\n", p.Name, p.Quantity)
	}
	fmt.Fprintf(tw, "\nGLASS\tSIZE\tQTY\n")
	for _, p := range list.Glass {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", p.Name, p.Dimensions(), p.Quantity)
	}
	fmt.Fprintf(tw, "\nTotal profile length: %g mm\n", list.ProfileLength)
	if err := tw.Flush(); err != nil {
		return err
	}
	return w.Flush()
}

func runLowStock(ctx context.Context, a *app, args []string) error {
	fs := newFlags("low-stock")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	snap, err := a.svc.Get(ctx)
	if err != nil {
		return err
	}
	items := report.LowStock(snap.Inventory)
	if *asJSON {
		return writeJSON(a.stdout, items)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tQTY\tREORDER AT\tUNIT")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%s\n", item.SKU, item.Name, item.Quantity, item.ReorderLevel, item.Unit)
	}
	return tw.Flush()
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("dashboard"), args); err != nil {
		return err
	}
	snap, err := a.svc.Get(ctx)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, report.Build(snap))
}
