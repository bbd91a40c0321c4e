package reports

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/moepig/nexpose-kit/renderer"
)

// ExportedFile describes one written CSV
type ExportedFile struct {
	Collector string
	Path      string
	Rows      int
}

// Summary is the result of an export run
type Summary struct {
	RunID string
	Dir   string
	Files []ExportedFile
}

// DatedDir returns base/YYYY-MM-DD for t
func DatedDir(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006-01-02"))
}

// ExportAll runs every collector of the default registry into dir
func ExportAll(ctx context.Context, src Source, dir string) (Summary, error) {
	return Export(ctx, defaultRegistry, src, dir)
}

// Export lists the sites once, then runs every collector of reg in name order
// and writes one CSV per collector into dir. The first failing collector
// aborts the run
func Export(ctx context.Context, reg *Registry, src Source, dir string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Dir: dir}

	names := reg.List()
	if len(names) == 0 {
		return summary, fmt.Errorf("no collectors registered")
	}

	slog.Info("Listing sites", "run_id", summary.RunID)
	sites, err := src.ListSites(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list sites: %w", err)
	}
	sort.SliceStable(sites, func(i, j int) bool { return sites[i].ID() < sites[j].ID() })
	in := Input{Source: src, Sites: sites}

	for _, name := range names {
		collector, err := reg.Get(name)
		if err != nil {
			return summary, err
		}

		slog.Info("Collecting", "run_id", summary.RunID, "collector", name, "sites", len(sites))
		table, err := collector.Collect(ctx, in)
		if err != nil {
			return summary, fmt.Errorf("failed to collect %s: %w", name, err)
		}

		path := filepath.Join(dir, collector.FileName())
		if err := renderer.WriteCSVFile(path, table); err != nil {
			return summary, fmt.Errorf("failed to export %s: %w", name, err)
		}
		slog.Info("Written output file", "path", path, "rows", table.Len())
		summary.Files = append(summary.Files, ExportedFile{Collector: name, Path: path, Rows: table.Len()})
	}

	return summary, nil
}
