package sitefinder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/targets"
)

// Source is the part of the Nexpose client the site finder reads from
type Source interface {
	ListSites(ctx context.Context) ([]nexpose.Resource, error)
	GetSiteIncludedExcludedTargets(ctx context.Context, siteID int64) nexpose.SiteTargets
}

// Match is the set of sites scanning one address
type Match struct {
	Address string
	Sites   []targets.Scope
}

// SiteNames returns the names of the matching sites in site order
func (m Match) SiteNames() []string {
	names := make([]string, 0, len(m.Sites))
	for _, s := range m.Sites {
		names = append(names, s.SiteName)
	}
	return names
}

// Finder resolves addresses against a snapshot of every site's scope
type Finder struct {
	resolver *targets.Resolver
}

// NewFinder creates a Finder over the given scopes
func NewFinder(scopes []targets.Scope) *Finder {
	return &Finder{resolver: targets.NewResolver(scopes)}
}

// Build lists every site and fetches its included and excluded targets
// Sites whose target lists could not be read are kept with whatever was
// available; the client has already logged the failure
func Build(ctx context.Context, src Source) (*Finder, error) {
	sites, err := src.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	sort.SliceStable(sites, func(i, j int) bool { return sites[i].ID() < sites[j].ID() })

	scopes := make([]targets.Scope, 0, len(sites))
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := src.GetSiteIncludedExcludedTargets(ctx, site.ID())
		scopes = append(scopes, targets.Scope{
			SiteID:   site.ID(),
			SiteName: site.Name(),
			Included: targets.NewSet(st.IncludedEntries),
			Excluded: targets.NewSet(st.ExcludedEntries),
		})
	}

	slog.Info("Loaded site scopes", "sites", len(scopes))
	return NewFinder(scopes), nil
}

// Len returns the number of sites
func (f *Finder) Len() int {
	return f.resolver.Len()
}

// Find returns every site that scans addr
func (f *Finder) Find(addr string) Match {
	addr = strings.TrimSpace(addr)
	m := Match{Address: addr, Sites: f.resolver.Resolve(addr)}
	if len(m.Sites) > 1 {
		slog.Warn("Address is scanned by more than one site",
			"address", addr,
			"sites", strings.Join(m.SiteNames(), ", "))
	}
	return m
}

// FindAll runs Find for every non-blank entry
func (f *Finder) FindAll(addrs []string) []Match {
	matches := make([]Match, 0, len(addrs))
	for _, addr := range addrs {
		if strings.TrimSpace(addr) == "" {
			continue
		}
		matches = append(matches, f.Find(addr))
	}
	return matches
}

// ReportRow is one line of the text report
type ReportRow struct {
	Address string
	Sites   []string
}

// Report is the data rendered into the site finder output file
type Report struct {
	Title   string
	Results []ReportRow
}

// NewReport converts matches into report data
func NewReport(matches []Match) Report {
	report := Report{Title: "Site Finder Results", Results: make([]ReportRow, 0, len(matches))}
	for _, m := range matches {
		report.Results = append(report.Results, ReportRow{Address: m.Address, Sites: m.SiteNames()})
	}
	return report
}
