package reports

import (
	"context"

	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/renderer"
)

// Source is the part of the Nexpose client the exporters read from
type Source interface {
	ListSites(ctx context.Context) ([]nexpose.Resource, error)
	GetSite(ctx context.Context, siteID int64) (nexpose.Resource, error)
	ListSiteScanSchedules(ctx context.Context, siteID int64) ([]nexpose.Resource, error)
	ListSiteSharedCredentials(ctx context.Context, siteID int64) ([]nexpose.Resource, error)
	GetSiteIncludedExcludedTargets(ctx context.Context, siteID int64) nexpose.SiteTargets
	ListScanTemplates(ctx context.Context) ([]nexpose.Resource, error)
	ListScanEngines(ctx context.Context) ([]nexpose.Resource, error)
	ListScanEnginePools(ctx context.Context) ([]nexpose.Resource, error)
	ListUsers(ctx context.Context) ([]nexpose.Resource, error)
	GetAdministrationInfo(ctx context.Context) (nexpose.Resource, error)
}

// Collector turns one part of the console configuration into a table
type Collector interface {
	// Name identifies the collector in the registry
	Name() string

	// FileName is the CSV file the table is written to
	FileName() string

	// Collect fetches the data and builds the table
	Collect(ctx context.Context, in Input) (renderer.Table, error)
}

// Input is shared by every collector of one export run
type Input struct {
	Source Source
	// Sites is the site listing, fetched once and sorted by id
	Sites []nexpose.Resource
}
