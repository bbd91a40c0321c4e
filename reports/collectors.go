package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/renderer"
	"github.com/moepig/nexpose-kit/targets"
)

type collector struct {
	name    string
	file    string
	collect func(ctx context.Context, in Input) (renderer.Table, error)
}

func (c *collector) Name() string     { return c.name }
func (c *collector) FileName() string { return c.file }

func (c *collector) Collect(ctx context.Context, in Input) (renderer.Table, error) {
	return c.collect(ctx, in)
}

// Defaults returns one collector per exported configuration file
func Defaults() []Collector {
	return []Collector{
		&collector{name: "site_defaults", file: "Site_Defaults.csv", collect: collectSiteDefaults},
		&collector{name: "scan_schedules", file: "Scan_Schedules_Configs.csv", collect: collectScanSchedules},
		&collector{name: "site_credentials", file: "Site_Credentials_Configs.csv", collect: collectSiteCredentials},
		&collector{name: "scan_templates", file: "Scan_Templates_Configs.csv", collect: collectScanTemplates},
		&collector{name: "scan_engines", file: "Scan_Engines_Configs.csv", collect: collectScanEngines},
		&collector{name: "engine_pools", file: "Engine_Pools_Configs.csv", collect: collectEnginePools},
		&collector{name: "users", file: "Users.csv", collect: collectUsers},
		&collector{name: "console_info", file: "Console_Info.csv", collect: collectConsoleInfo},
		&collector{name: "site_targets", file: "Site_Targets.csv", collect: collectSiteTargets},
	}
}

func boolString(r nexpose.Resource, key string) string {
	return strconv.FormatBool(r.Bool(key))
}

func collectSiteDefaults(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Site ID", "Number of Assets", "Site Name", "Default Scan Engine", "Default Template", "Site Type",
	}}
	for _, s := range in.Sites {
		site, err := in.Source.GetSite(ctx, s.ID())
		if err != nil {
			return table, fmt.Errorf("failed to get site %d: %w", s.ID(), err)
		}
		table.Append(
			strconv.FormatInt(s.ID(), 10),
			site.String("assets"),
			site.Name(),
			site.String("scanEngine"),
			site.String("scanTemplate"),
			site.String("type"),
		)
	}
	return table, nil
}

func collectScanSchedules(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Site ID", "Enabled", "Scan Schedule ID", "Scan Name", "Scan Template ID", "Scan Engine ID",
		"Included Assets", "Excluded Assets", "Start Time", "Duration of Scan",
	}}
	for _, s := range in.Sites {
		schedules, err := in.Source.ListSiteScanSchedules(ctx, s.ID())
		if err != nil {
			return table, fmt.Errorf("failed to list scan schedules of site %d: %w", s.ID(), err)
		}
		for _, item := range schedules {
			table.Append(
				strconv.FormatInt(s.ID(), 10),
				boolString(item, "enabled"),
				item.IDString(),
				item.String("scanName"),
				item.String("scanTemplateId"),
				item.String("scanEngineId"),
				strings.Join(item.Strings("assets", "includedTargets", "addresses"), ", "),
				strings.Join(item.Strings("assets", "excludedTargets", "addresses"), ", "),
				item.String("start"),
				item.String("duration"),
			)
		}
	}
	return table, nil
}

func collectSiteCredentials(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Site ID", "Site Name", "Site Credential Enabled?", "Credential Name", "Credential ID", "Credential Service",
	}}
	for _, s := range in.Sites {
		creds, err := in.Source.ListSiteSharedCredentials(ctx, s.ID())
		if err != nil {
			return table, fmt.Errorf("failed to list shared credentials of site %d: %w", s.ID(), err)
		}
		for _, item := range creds {
			table.Append(
				strconv.FormatInt(s.ID(), 10),
				s.Name(),
				boolString(item, "enabled"),
				item.Name(),
				item.IDString(),
				item.String("service"),
			)
		}
	}
	return table, nil
}

func collectScanTemplates(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Scan Template Name", "Scan Template ID", "Description", "Discovery Only?", "Vulnerability Enabled?",
		"Policy Enabled?", "Policy", "Web Enabled?", "Web", "Windows Services Enabled?", "Enhanced Logging?",
		"Max Parallel Assets", "Max Scan Processes", "Telnet",
	}}
	templates, err := in.Source.ListScanTemplates(ctx)
	if err != nil {
		return table, fmt.Errorf("failed to list scan templates: %w", err)
	}
	for _, item := range templates {
		table.Append(
			item.Name(),
			item.IDString(),
			item.String("description"),
			boolString(item, "discoveryOnly"),
			boolString(item, "vulnerabilityEnabled"),
			boolString(item, "policyEnabled"),
			item.String("policy"),
			boolString(item, "webEnabled"),
			item.String("web"),
			boolString(item, "enableWindowsServices"),
			boolString(item, "enhancedLogging"),
			item.String("maxParallelAssets"),
			item.String("maxScanProcesses"),
			item.String("telnet"),
		)
	}
	return table, nil
}

func collectScanEngines(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Scan Engine ID", "Scan Engine Name", "Sites", "Address", "Port", "Content Version", "Product Version",
	}}
	engines, err := in.Source.ListScanEngines(ctx)
	if err != nil {
		return table, fmt.Errorf("failed to list scan engines: %w", err)
	}
	for _, item := range engines {
		table.Append(
			item.IDString(),
			item.Name(),
			strings.Join(item.Strings("sites"), ", "),
			item.String("address"),
			item.String("port"),
			item.String("contentVersion"),
			item.String("productVersion"),
		)
	}
	return table, nil
}

func collectEnginePools(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{"Pool ID", "Pool Name", "Pool Engines"}}
	pools, err := in.Source.ListScanEnginePools(ctx)
	if err != nil {
		return table, fmt.Errorf("failed to list engine pools: %w", err)
	}
	for _, item := range pools {
		table.Append(item.IDString(), item.Name(), strings.Join(item.Strings("engines"), ", "))
	}
	return table, nil
}

func collectUsers(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{"User Name", "User ID", "Login", "Enabled"}}
	users, err := in.Source.ListUsers(ctx)
	if err != nil {
		return table, fmt.Errorf("failed to list users: %w", err)
	}
	for _, item := range users {
		table.Append(item.Name(), item.IDString(), item.String("login"), boolString(item, "enabled"))
	}
	return table, nil
}

func collectConsoleInfo(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Content Version", "Content Version (Partial)", "Product ID", "Version ID", "Product",
	}}
	info, err := in.Source.GetAdministrationInfo(ctx)
	if err != nil {
		return table, fmt.Errorf("failed to get administration info: %w", err)
	}
	table.Append(
		info.String("version", "update", "content"),
		info.String("version", "update", "contentPartial"),
		info.String("version", "update", "id", "productId"),
		info.String("version", "update", "id", "versionId"),
		info.String("version", "update", "product"),
	)
	return table, nil
}

func collectSiteTargets(ctx context.Context, in Input) (renderer.Table, error) {
	table := renderer.Table{Header: []string{
		"Site ID", "Site Name", "Included Targets", "Excluded Targets", "Included Addresses", "Excluded Addresses",
	}}
	for _, s := range in.Sites {
		if err := ctx.Err(); err != nil {
			return table, err
		}
		st := in.Source.GetSiteIncludedExcludedTargets(ctx, s.ID())
		table.Append(
			strconv.FormatInt(s.ID(), 10),
			s.Name(),
			strings.Join(st.IncludedEntries, ", "),
			strings.Join(st.ExcludedEntries, ", "),
			strconv.FormatUint(targets.Count(st.IncludedEntries), 10),
			strconv.FormatUint(targets.Count(st.ExcludedEntries), 10),
		)
	}
	return table, nil
}
