package nexpose

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/moepig/nexpose-kit/targets"
)

// ListSites returns every site
func (c *Client) ListSites(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/sites", nil)
}

// GetSite returns a single site
func (c *Client) GetSite(ctx context.Context, siteID int64) (Resource, error) {
	var site Resource
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sites/%d", siteID), nil, &site); err != nil {
		return nil, err
	}
	return site, nil
}

// ListSiteScanSchedules returns the scan schedules of a site
func (c *Client) ListSiteScanSchedules(ctx context.Context, siteID int64) ([]Resource, error) {
	return c.ListPaginated(ctx, fmt.Sprintf("/sites/%d/scan_schedules", siteID), nil)
}

// ListSiteSharedCredentials returns the shared credentials enabled for a site
func (c *Client) ListSiteSharedCredentials(ctx context.Context, siteID int64) ([]Resource, error) {
	return c.ListPaginated(ctx, fmt.Sprintf("/sites/%d/shared_credentials", siteID), nil)
}

// ListScanTemplates returns every scan template
func (c *Client) ListScanTemplates(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/scan_templates", nil)
}

// ListScanEngines returns every scan engine
func (c *Client) ListScanEngines(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/scan_engines", nil)
}

// ListScanEnginePools returns every engine pool
func (c *Client) ListScanEnginePools(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/scan_engine_pools", nil)
}

// ListUsers returns every console user
func (c *Client) ListUsers(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/users", nil)
}

// GetAdministrationInfo returns console version information
func (c *Client) GetAdministrationInfo(ctx context.Context) (Resource, error) {
	var info Resource
	if _, err := c.do(ctx, http.MethodGet, "/administration/info", nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// ListTags returns every tag
func (c *Client) ListTags(ctx context.Context) ([]Resource, error) {
	return c.ListPaginated(ctx, "/tags", nil)
}

// ListTagAssets returns the asset references carrying a tag
func (c *Client) ListTagAssets(ctx context.Context, tagID int64) ([]Resource, error) {
	return c.ListPaginated(ctx, fmt.Sprintf("/tags/%d/assets", tagID), nil)
}

// GetAsset returns a single asset
func (c *Client) GetAsset(ctx context.Context, assetID int64) (Resource, error) {
	var asset Resource
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assets/%d", assetID), nil, &asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetTagByName returns the first tag whose name matches exactly (case-sensitive)
// found is false when no tag matches; err is set only when the lookup failed
func (c *Client) GetTagByName(ctx context.Context, name string) (tag Resource, found bool, err error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list tags: %w", err)
	}
	for _, t := range tags {
		if t.Name() == name {
			return t, true, nil
		}
	}
	return nil, false, nil
}

// GetTagByID returns the tag with the given numeric id
func (c *Client) GetTagByID(ctx context.Context, id int64) (tag Resource, found bool, err error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list tags: %w", err)
	}
	for _, t := range tags {
		if tagID, ok := t.Int("id"); ok && tagID == id {
			return t, true, nil
		}
	}
	return nil, false, nil
}

// SetAssetTag attaches a tag to an asset
func (c *Client) SetAssetTag(ctx context.Context, assetID, tagID int64) (Ack, error) {
	return c.assetTag(ctx, http.MethodPut, assetID, tagID)
}

// ClearAssetTag removes a tag from an asset
func (c *Client) ClearAssetTag(ctx context.Context, assetID, tagID int64) (Ack, error) {
	return c.assetTag(ctx, http.MethodDelete, assetID, tagID)
}

func (c *Client) assetTag(ctx context.Context, method string, assetID, tagID int64) (Ack, error) {
	var ack Ack
	status, err := c.do(ctx, method, fmt.Sprintf("/assets/%d/tags/%d", assetID, tagID), nil, &ack)
	ack.StatusCode = status
	if err != nil {
		return ack, err
	}
	return ack, nil
}

// SiteTargets holds a site's target lists as returned by the API. Ranges are
// expanded only on request. A failed lookup leaves the list empty and records
// the reason in IncludedErr / ExcludedErr
type SiteTargets struct {
	IncludedEntries []string
	ExcludedEntries []string
	IncludedErr     error
	ExcludedErr     error
}

// IncludedAddresses expands the included entries
func (st SiteTargets) IncludedAddresses() []string {
	return targets.ExpandAll(st.IncludedEntries)
}

// ExcludedAddresses expands the excluded entries
func (st SiteTargets) ExcludedAddresses() []string {
	return targets.ExpandAll(st.ExcludedEntries)
}

// GetSiteIncludedExcludedTargets fetches both target lists of a site. Target
// configuration is optional, so missing lists are empty rather than errors
func (c *Client) GetSiteIncludedExcludedTargets(ctx context.Context, siteID int64) SiteTargets {
	var st SiteTargets
	st.IncludedEntries, st.IncludedErr = c.siteTargetEntries(ctx, siteID, "included_targets")
	st.ExcludedEntries, st.ExcludedErr = c.siteTargetEntries(ctx, siteID, "excluded_targets")
	return st
}

func (c *Client) siteTargetEntries(ctx context.Context, siteID int64, kind string) ([]string, error) {
	var body struct {
		Addresses []string `json:"addresses"`
	}
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sites/%d/%s", siteID, kind), nil, &body); err != nil {
		slog.Warn("Site target list unavailable, treating as empty",
			"site_id", siteID,
			"list", kind,
			"error", err)
		return []string{}, err
	}
	if body.Addresses == nil {
		return []string{}, nil
	}
	return body.Addresses, nil
}
