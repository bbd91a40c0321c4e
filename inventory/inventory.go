package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Column names of the exported asset inventory
const (
	ColumnAssetID         = "asset_id"
	ColumnHostName        = "host_name"
	ColumnIPAddressAll    = "ip_address_all"
	ColumnVulnerabilities = "vulnerabilities"
	ColumnOperatingSystem = "Operating System"
	ColumnLastScanDate    = "Last Scan Date"
	ColumnSiteID          = "Site ID"
	ColumnAuthentication  = "Authentication"
)

// RequiredColumns are the inventory columns every lookup reads, in output order
var RequiredColumns = []string{
	ColumnAssetID,
	ColumnHostName,
	ColumnIPAddressAll,
	ColumnVulnerabilities,
	ColumnOperatingSystem,
	ColumnLastScanDate,
	ColumnSiteID,
	ColumnAuthentication,
}

// Multi-homed assets list every address in one cell separated by this
const addressSeparator = ", "

// Asset is one inventory row after the address column has been exploded,
// so a host with two addresses appears as two Assets
type Asset struct {
	AssetID         int64
	HostName        string
	IPAddress       string
	Vulnerabilities string
	OperatingSystem string
	LastScanDate    string
	SiteID          string
	Authentication  string
}

// Record returns the asset as a CSV record in RequiredColumns order
func (a Asset) Record() []string {
	return []string{
		strconv.FormatInt(a.AssetID, 10),
		a.HostName,
		a.IPAddress,
		a.Vulnerabilities,
		a.OperatingSystem,
		a.LastScanDate,
		a.SiteID,
		a.Authentication,
	}
}

// Inventory is an in-memory snapshot of the asset inventory file
type Inventory struct {
	assets []Asset
}

// NormalizeHostname lower-cases name and drops everything from the first '.',
// so "Web01.corp.example.com" and "web01" compare equal
func NormalizeHostname(name string) string {
	name, _, _ = strings.Cut(name, ".")
	return strings.ToLower(name)
}

// Load reads the inventory CSV at path
func Load(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer f.Close()

	inv, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory '%s': %w", path, err)
	}
	slog.Info("Loaded asset inventory", "path", path, "rows", inv.Len())
	return inv, nil
}

// Read parses an inventory CSV. Host names are normalized, every address in
// ip_address_all gets its own row, and rows are sorted by host name
func Read(r io.Reader) (*Inventory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("inventory is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var assets []Asset
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		field := func(column string) string {
			i := index[column]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		rawID := field(ColumnAssetID)
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			// spreadsheet exports write integer columns as "123.0" when blanks are present
			f, ferr := strconv.ParseFloat(rawID, 64)
			if ferr != nil {
				return nil, fmt.Errorf("row %d: invalid asset_id '%s'", line, rawID)
			}
			id = int64(f)
		}

		base := Asset{
			AssetID:         id,
			HostName:        NormalizeHostname(field(ColumnHostName)),
			Vulnerabilities: field(ColumnVulnerabilities),
			OperatingSystem: field(ColumnOperatingSystem),
			LastScanDate:    field(ColumnLastScanDate),
			SiteID:          field(ColumnSiteID),
			Authentication:  field(ColumnAuthentication),
		}
		for _, addr := range strings.Split(field(ColumnIPAddressAll), addressSeparator) {
			asset := base
			asset.IPAddress = strings.TrimSpace(addr)
			assets = append(assets, asset)
		}
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].HostName < assets[j].HostName
	})

	return &Inventory{assets: assets}, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	for _, column := range RequiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("missing required column: %s", column)
		}
	}
	return index, nil
}

// New builds an inventory from already exploded assets
func New(assets []Asset) *Inventory {
	return &Inventory{assets: append([]Asset(nil), assets...)}
}

// Len returns the number of rows
func (inv *Inventory) Len() int {
	return len(inv.assets)
}

// Assets returns a copy of all rows
func (inv *Inventory) Assets() []Asset {
	return append([]Asset(nil), inv.assets...)
}

func (inv *Inventory) filter(match func(Asset) bool) []Asset {
	var out []Asset
	for _, a := range inv.assets {
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

// ByIP returns the rows whose address equals ip exactly
func (inv *Inventory) ByIP(ip string) []Asset {
	ip = strings.TrimSpace(ip)
	return inv.filter(func(a Asset) bool { return a.IPAddress == ip })
}

// SearchIP returns the rows whose address contains fragment
func (inv *Inventory) SearchIP(fragment string) []Asset {
	fragment = strings.TrimSpace(fragment)
	return inv.filter(func(a Asset) bool { return strings.Contains(a.IPAddress, fragment) })
}

// ByHostname normalizes name and returns the rows whose host name contains it
func (inv *Inventory) ByHostname(name string) []Asset {
	key := NormalizeHostname(strings.TrimSpace(name))
	return inv.filter(func(a Asset) bool { return strings.Contains(a.HostName, key) })
}

// ByAssetID returns every row of one asset
func (inv *Inventory) ByAssetID(id int64) []Asset {
	return inv.filter(func(a Asset) bool { return a.AssetID == id })
}

// FindIPs runs ByIP for each entry and concatenates the results
// Blank entries are skipped
func (inv *Inventory) FindIPs(ips []string) []Asset {
	var out []Asset
	for _, ip := range ips {
		if strings.TrimSpace(ip) == "" {
			continue
		}
		out = append(out, inv.ByIP(ip)...)
	}
	return out
}

// FindHostnames runs ByHostname for each entry and concatenates the results
// Blank entries are skipped, otherwise they would match every row
func (inv *Inventory) FindHostnames(names []string) []Asset {
	var out []Asset
	for _, name := range names {
		if NormalizeHostname(strings.TrimSpace(name)) == "" {
			continue
		}
		out = append(out, inv.ByHostname(name)...)
	}
	return out
}

// Records converts assets to CSV records in RequiredColumns order
func Records(assets []Asset) [][]string {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, a.Record())
	}
	return rows
}
