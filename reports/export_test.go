package reports

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moepig/nexpose-kit/nexpose"
	"github.com/moepig/nexpose-kit/renderer"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) one(ret mock.Arguments) (nexpose.Resource, error) {
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(nexpose.Resource), ret.Error(1)
}

func (m *MockSource) ListSites(ctx context.Context) ([]nexpose.Resource, error) {
	ret := m.Called(ctx)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) GetSite(ctx context.Context, siteID int64) (nexpose.Resource, error) {
	return m.one(m.Called(ctx, siteID))
}

func (m *MockSource) ListSiteScanSchedules(ctx context.Context, siteID int64) ([]nexpose.Resource, error) {
	ret := m.Called(ctx, siteID)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) ListSiteSharedCredentials(ctx context.Context, siteID int64) ([]nexpose.Resource, error) {
	ret := m.Called(ctx, siteID)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) GetSiteIncludedExcludedTargets(ctx context.Context, siteID int64) nexpose.SiteTargets {
	return m.Called(ctx, siteID).Get(0).(nexpose.SiteTargets)
}

func (m *MockSource) ListScanTemplates(ctx context.Context) ([]nexpose.Resource, error) {
	ret := m.Called(ctx)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) ListScanEngines(ctx context.Context) ([]nexpose.Resource, error) {
	ret := m.Called(ctx)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) ListScanEnginePools(ctx context.Context) ([]nexpose.Resource, error) {
	ret := m.Called(ctx)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) ListUsers(ctx context.Context) ([]nexpose.Resource, error) {
	ret := m.Called(ctx)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]nexpose.Resource), ret.Error(1)
}

func (m *MockSource) GetAdministrationInfo(ctx context.Context) (nexpose.Resource, error) {
	return m.one(m.Called(ctx))
}

// newPopulatedSource returns a source with two sites (listed out of order)
// and one item of every other resource type
func newPopulatedSource() *MockSource {
	src := new(MockSource)
	anyCtx := mock.Anything

	src.On("ListSites", anyCtx).Return([]nexpose.Resource{
		{"id": 2.0, "name": "Lab"},
		{"id": 1.0, "name": "Main"},
	}, nil)
	src.On("GetSite", anyCtx, int64(1)).Return(nexpose.Resource{
		"id": 1.0, "name": "Main", "assets": 120.0, "scanEngine": 3.0, "scanTemplate": "full-audit", "type": "static",
	}, nil)
	src.On("GetSite", anyCtx, int64(2)).Return(nexpose.Resource{
		"id": 2.0, "name": "Lab", "assets": 4.0, "scanEngine": 3.0, "scanTemplate": "discovery", "type": "static",
	}, nil)
	src.On("ListSiteScanSchedules", anyCtx, int64(1)).Return([]nexpose.Resource{
		{
			"id": 7.0, "enabled": true, "scanName": "Weekly", "scanTemplateId": "full-audit", "scanEngineId": 3.0,
			"start": "2024-01-01T02:00:00Z", "duration": "PT4H",
			"assets": map[string]interface{}{
				"includedTargets": map[string]interface{}{"addresses": []interface{}{"10.0.0.1", "10.0.0.2"}},
			},
		},
	}, nil)
	src.On("ListSiteScanSchedules", anyCtx, int64(2)).Return([]nexpose.Resource{}, nil)
	src.On("ListSiteSharedCredentials", anyCtx, int64(1)).Return([]nexpose.Resource{
		{"id": 5.0, "name": "domain-admin", "enabled": true, "service": "cifs"},
	}, nil)
	src.On("ListSiteSharedCredentials", anyCtx, int64(2)).Return([]nexpose.Resource{}, nil)
	src.On("GetSiteIncludedExcludedTargets", anyCtx, int64(1)).Return(nexpose.SiteTargets{
		IncludedEntries: []string{"10.0.0.1 - 10.0.0.3"},
		ExcludedEntries: []string{"10.0.0.2"},
	})
	src.On("GetSiteIncludedExcludedTargets", anyCtx, int64(2)).Return(nexpose.SiteTargets{
		IncludedEntries: []string{}, ExcludedEntries: []string{},
	})
	src.On("ListScanTemplates", anyCtx).Return([]nexpose.Resource{
		{"id": "full-audit", "name": "Full audit", "discoveryOnly": false, "vulnerabilityEnabled": true, "maxParallelAssets": 10.0},
	}, nil)
	src.On("ListScanEngines", anyCtx).Return([]nexpose.Resource{
		{"id": 3.0, "name": "engine-1", "sites": []interface{}{1.0, 2.0}, "address": "engine-1.example.com", "port": 40814.0},
	}, nil)
	src.On("ListScanEnginePools", anyCtx).Return([]nexpose.Resource{
		{"id": 9.0, "name": "pool-a", "engines": []interface{}{3.0}},
	}, nil)
	src.On("ListUsers", anyCtx).Return([]nexpose.Resource{
		{"id": 1.0, "name": "Administrator", "login": "admin", "enabled": true},
	}, nil)
	src.On("GetAdministrationInfo", anyCtx).Return(nexpose.Resource{
		"version": map[string]interface{}{
			"update": map[string]interface{}{
				"content":        "1234",
				"contentPartial": "12",
				"product":        "6.6.200",
				"id": map[string]interface{}{
					"productId": "prod-1",
					"versionId": "ver-1",
				},
			},
		},
	}, nil)
	return src
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func defaultRegistryForTest() *Registry {
	reg := NewRegistry()
	for _, c := range Defaults() {
		reg.Register(c)
	}
	return reg
}

func TestExport(t *testing.T) {
	t.Run("writes every file", func(t *testing.T) {
		src := newPopulatedSource()
		dir := DatedDir(t.TempDir(), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

		summary, err := Export(context.Background(), defaultRegistryForTest(), src, dir)
		require.NoError(t, err)
		assert.NotEmpty(t, summary.RunID)
		assert.Equal(t, "2024-03-05", filepath.Base(summary.Dir))
		require.Len(t, summary.Files, 9)

		for _, name := range []string{
			"Site_Defaults.csv", "Scan_Schedules_Configs.csv", "Site_Credentials_Configs.csv",
			"Scan_Templates_Configs.csv", "Scan_Engines_Configs.csv", "Engine_Pools_Configs.csv",
			"Users.csv", "Console_Info.csv", "Site_Targets.csv",
		} {
			assert.FileExists(t, filepath.Join(dir, name))
		}

		defaults := readCSV(t, filepath.Join(dir, "Site_Defaults.csv"))
		require.Len(t, defaults, 3)
		assert.Equal(t, []string{"1", "120", "Main", "3", "full-audit", "static"}, defaults[1], "sites sorted by id")
		assert.Equal(t, "2", defaults[2][0])

		schedules := readCSV(t, filepath.Join(dir, "Scan_Schedules_Configs.csv"))
		require.Len(t, schedules, 2)
		assert.Equal(t, []string{"1", "true", "7", "Weekly", "full-audit", "3", "10.0.0.1, 10.0.0.2", "", "2024-01-01T02:00:00Z", "PT4H"}, schedules[1])

		creds := readCSV(t, filepath.Join(dir, "Site_Credentials_Configs.csv"))
		require.Len(t, creds, 2)
		assert.Equal(t, []string{"1", "Main", "true", "domain-admin", "5", "cifs"}, creds[1])

		engines := readCSV(t, filepath.Join(dir, "Scan_Engines_Configs.csv"))
		assert.Equal(t, []string{"3", "engine-1", "1, 2", "engine-1.example.com", "40814", "", ""}, engines[1])

		console := readCSV(t, filepath.Join(dir, "Console_Info.csv"))
		assert.Equal(t, []string{"1234", "12", "prod-1", "ver-1", "6.6.200"}, console[1])

		siteTargets := readCSV(t, filepath.Join(dir, "Site_Targets.csv"))
		require.Len(t, siteTargets, 3)
		assert.Equal(t, []string{"1", "Main", "10.0.0.1 - 10.0.0.3", "10.0.0.2", "3", "1"}, siteTargets[1])
		assert.Equal(t, []string{"2", "Lab", "", "", "0", "0"}, siteTargets[2])

		src.AssertExpectations(t)
	})

	t.Run("collector failure aborts the export", func(t *testing.T) {
		src := new(MockSource)
		src.On("ListSites", mock.Anything).Return([]nexpose.Resource{}, nil)
		src.On("ListScanEngines", mock.Anything).Return(nil, &nexpose.APIError{Method: "GET", Path: "/scan_engines", StatusCode: 500})

		reg := NewRegistry()
		reg.Register(Defaults()[4]) // scan_engines

		_, err := Export(context.Background(), reg, src, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to collect scan_engines")

		var apiErr *nexpose.APIError
		assert.True(t, errors.As(err, &apiErr))
	})

	t.Run("site listing failure", func(t *testing.T) {
		src := new(MockSource)
		src.On("ListSites", mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := Export(context.Background(), defaultRegistryForTest(), src, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list sites")
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := Export(context.Background(), NewRegistry(), new(MockSource), t.TempDir())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no collectors registered")
	})
}

type stubCollector struct {
	name string
}

func (s stubCollector) Name() string     { return s.name }
func (s stubCollector) FileName() string { return s.name + ".csv" }
func (s stubCollector) Collect(context.Context, Input) (renderer.Table, error) {
	return renderer.Table{Header: []string{"name"}, Rows: [][]string{{s.name}}}, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubCollector{name: "b"})
	reg.Register(stubCollector{name: "a"})
	reg.Register(stubCollector{name: "b"})

	assert.Equal(t, []string{"a", "b"}, reg.List())

	c, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a.csv", c.FileName())

	_, err = reg.Get("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "collector not found: missing")
}

func TestDefaults(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Defaults() {
		assert.False(t, seen[c.Name()], "duplicate collector %s", c.Name())
		seen[c.Name()] = true
		assert.Equal(t, ".csv", filepath.Ext(c.FileName()))
	}
	assert.Len(t, seen, 9)
}
