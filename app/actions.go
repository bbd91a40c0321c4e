package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/moepig/nexpose-kit/console"
	"github.com/moepig/nexpose-kit/inventory"
	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/renderer"
	"github.com/moepig/nexpose-kit/reports"
	"github.com/moepig/nexpose-kit/sitefinder"
	"github.com/moepig/nexpose-kit/tagger"
)

const (
	siteFinderPrefix = "Site_Finder"
	tagLogPrefix     = "AssetsTagged_Log"
	assetIDsDir      = "Asset IDs"
)

var (
	lookupMenu = []console.Option{
		{Key: "1", Label: "Search by IP address"},
		{Key: "2", Label: "Search by hostname"},
		{Key: "3", Label: "Search by asset ID"},
		{Key: "0", Label: "Back"},
	}
	finderMenu = []console.Option{
		{Key: "1", Label: "Search by IP address file"},
		{Key: "2", Label: "Search by hostname file"},
		{Key: "0", Label: "Back"},
	}
	siteMenu = []console.Option{
		{Key: "1", Label: "Find the site of one IP address"},
		{Key: "2", Label: "Find the sites of every IP address in a .txt file"},
		{Key: "0", Label: "Back"},
	}
	tagMenu = []console.Option{
		{Key: "1", Label: "Tag assets using a tag ID"},
		{Key: "2", Label: "Tag assets using a tag name"},
		{Key: "3", Label: "Remove a tag from assets using a tag ID"},
		{Key: "4", Label: "Remove a tag from assets using a tag name"},
		{Key: "0", Label: "Back"},
	}
)

func (a *App) export(ctx context.Context) error {
	client, err := a.connect(ctx)
	if err != nil {
		return err
	}

	dir := reports.DatedDir(a.cfg.Paths.DataDir, a.now())
	summary, err := reports.ExportAll(ctx, client, dir)
	if err != nil {
		return err
	}

	for _, f := range summary.Files {
		a.prompt.Printf("%s: %d rows\n", f.Path, f.Rows)
	}
	a.prompt.Printf("All done! Results were saved to '%s'\n", summary.Dir)
	return nil
}

func (a *App) findSites(ctx context.Context) error {
	choice, err := a.prompt.Menu("Site finder:", siteMenu)
	if err != nil || choice == "0" {
		return err
	}

	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if a.finder == nil {
		a.prompt.Println("Loading site targets, this may take a while..")
		a.finder, err = sitefinder.Build(ctx, client)
		if err != nil {
			return err
		}
	}

	if choice == "1" {
		addr, err := a.prompt.AskRequired("Please enter the IP address: ")
		if err != nil {
			return err
		}
		m := a.finder.Find(addr)
		if len(m.Sites) == 0 {
			a.prompt.Printf("%s: no matching site\n", m.Address)
			return nil
		}
		a.prompt.Printf("%s: %s\n", m.Address, strings.Join(m.SiteNames(), ", "))
		return nil
	}

	_, lines, err := a.prompt.AskListFile("Please enter the path to a .txt file of IP addresses (one per line): ")
	if err != nil {
		return err
	}
	report := sitefinder.NewReport(a.finder.FindAll(lines))
	out, err := a.renderer.RenderBuiltin(renderer.SiteFinderTemplate, report)
	if err != nil {
		return err
	}
	path := filepath.Join(a.cfg.Paths.OutputDir, renderer.TimestampedName(siteFinderPrefix, ".txt", a.now()))
	if err := renderer.WriteFile(path, out); err != nil {
		return err
	}
	slog.Info("Written output file", "path", path, "addresses", len(report.Results))
	a.prompt.Printf("All done! Results were saved to '%s'\n", path)
	return nil
}

func (a *App) lookupAssets(_ context.Context) error {
	inv, err := a.loadInventory()
	if err != nil {
		return err
	}

	for {
		choice, err := a.prompt.Menu("Asset lookup ('0' to go back):", lookupMenu)
		if err != nil || choice == "0" {
			return err
		}

		var found []inventory.Asset
		switch choice {
		case "1":
			ip, err := a.prompt.AskRequired("Please enter the asset's IP address: ")
			if err != nil {
				return err
			}
			found = inv.SearchIP(ip)
		case "2":
			name, err := a.prompt.AskRequired("Please enter the asset's hostname: ")
			if err != nil {
				return err
			}
			found = inv.ByHostname(name)
		case "3":
			raw, err := a.prompt.AskRequired("Please enter the asset's ID: ")
			if err != nil {
				return err
			}
			id, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				a.prompt.Println("Invalid input!")
				continue
			}
			found = inv.ByAssetID(id)
		}

		if len(found) == 0 {
			a.prompt.Println("\nAsset not found! Please check your input..")
			continue
		}
		a.printAssets(found)
	}
}

func (a *App) printAssets(assets []inventory.Asset) {
	a.prompt.Println()
	w := tabwriter.NewWriter(a.prompt.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(inventory.RequiredColumns, "\t"))
	for _, record := range inventory.Records(assets) {
		fmt.Fprintln(w, strings.Join(record, "\t"))
	}
	w.Flush()
}

func (a *App) findAssetIDs(_ context.Context) error {
	inv, err := a.loadInventory()
	if err != nil {
		return err
	}

	choice, err := a.prompt.Menu("Asset ID finder:", finderMenu)
	if err != nil || choice == "0" {
		return err
	}

	var found []inventory.Asset
	if choice == "1" {
		_, lines, err := a.prompt.AskListFile("Please enter the path to a .txt file of asset IP addresses (one per line): ")
		if err != nil {
			return err
		}
		a.prompt.Println("\nFile found! Getting results..")
		found = inv.FindIPs(lines)
	} else {
		_, lines, err := a.prompt.AskListFile("Please enter the path to a .txt file of asset hostnames (one per line): ")
		if err != nil {
			return err
		}
		a.prompt.Println("\nFile found! Getting results..")
		found = inv.FindHostnames(lines)
	}

	table := renderer.Table{Header: inventory.RequiredColumns, Rows: inventory.Records(found)}
	path := filepath.Join(a.cfg.Paths.OutputDir, assetIDsDir, renderer.Timestamp(a.now())+".csv")
	if err := renderer.WriteCSVFile(path, table); err != nil {
		return err
	}
	slog.Info("Written output file", "path", path, "rows", table.Len())
	a.prompt.Printf("All done! %d matching rows were saved to '%s'\n", table.Len(), path)
	return nil
}

func (a *App) tagAssets(ctx context.Context) error {
	choice, err := a.prompt.Menu("Asset tagger:", tagMenu)
	if err != nil || choice == "0" {
		return err
	}
	op := tagger.Tag
	if choice == "3" || choice == "4" {
		op = tagger.Untag
	}
	byName := choice == "2" || choice == "4"

	client, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var (
		tag   nexpose.Resource
		found bool
		ref   string
	)
	if byName {
		ref, err = a.prompt.AskRequired("Please enter the tag name: ")
		if err != nil {
			return err
		}
		tag, found, err = client.GetTagByName(ctx, ref)
	} else {
		ref, err = a.prompt.AskRequired("Please enter the tag ID: ")
		if err != nil {
			return err
		}
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil || id <= 0 {
			a.prompt.Printf("\nInvalid input! '%s' is not a tag ID\n", ref)
			return nil
		}
		tag, found, err = client.GetTagByID(ctx, id)
	}
	if err != nil {
		return err
	}
	if !found {
		a.prompt.Printf("Tag '%s' not found! Aborting..\n", ref)
		return nil
	}
	a.prompt.Printf("Tag found!\nTag Name: %s\nTag ID: %d\n\n", tag.Name(), tag.ID())

	_, lines, err := a.prompt.AskListFile("Please enter the path to a .txt file of asset IDs (one per line): ")
	if err != nil {
		return err
	}
	ids, err := tagger.ParseAssetIDs(lines)
	if err != nil {
		a.prompt.Printf("\nInvalid input! %v\n", err)
		return nil
	}

	question := fmt.Sprintf("Would you like to tag %d assets with tag %d", len(ids), tag.ID())
	if op == tagger.Untag {
		question = fmt.Sprintf("Would you like to remove tag %d from %d assets", tag.ID(), len(ids))
	}
	ok, err := a.prompt.Confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		a.prompt.Println("Aborted, no assets were changed.")
		return nil
	}

	result := tagger.New(client).Run(ctx, op, tag.ID(), ids)
	out, err := a.renderer.RenderReport(renderer.TagLogTemplate, a.cfg.Paths.TagLogTemplate, renderer.TemplateData{
		Title:       op.Summary(),
		RunID:       result.RunID,
		GeneratedAt: result.FinishedAt,
		Lines:       result.LogLines(),
		Static: map[string]interface{}{
			"environment": a.environment,
			"host":        a.host,
		},
	})
	if err != nil {
		return err
	}
	path := filepath.Join(a.cfg.Paths.OutputDir, renderer.TimestampedName(tagLogPrefix, ".txt", a.now()))
	if err := renderer.WriteFile(path, out); err != nil {
		return err
	}

	a.prompt.Printf("%d succeeded, %d failed. Log saved to '%s'\n",
		len(result.Successes()), len(result.Failures()), path)
	return nil
}
