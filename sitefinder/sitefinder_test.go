package sitefinder

import (
	"context"
	"errors"
	"testing"

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

func (m *MockSource) ListSites(ctx context.Context) ([]nexpose.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]nexpose.Resource), args.Error(1)
}

func (m *MockSource) GetSiteIncludedExcludedTargets(ctx context.Context, siteID int64) nexpose.SiteTargets {
	return m.Called(ctx, siteID).Get(0).(nexpose.SiteTargets)
}

func newSiteSource() *MockSource {
	src := new(MockSource)
	src.On("ListSites", mock.Anything).Return([]nexpose.Resource{
		{"id": 2.0, "name": "Site B"},
		{"id": 1.0, "name": "Site A"},
		{"id": 3.0, "name": "Site C"},
	}, nil)
	src.On("GetSiteIncludedExcludedTargets", mock.Anything, int64(1)).Return(nexpose.SiteTargets{
		IncludedEntries: []string{"10.0.0.1-10.0.0.5"},
		ExcludedEntries: []string{"10.0.0.3"},
	})
	src.On("GetSiteIncludedExcludedTargets", mock.Anything, int64(2)).Return(nexpose.SiteTargets{
		IncludedEntries: []string{"10.0.0.3"},
		ExcludedEntries: []string{},
	})
	src.On("GetSiteIncludedExcludedTargets", mock.Anything, int64(3)).Return(nexpose.SiteTargets{
		IncludedEntries: []string{"10.0.0.0/30"},
		ExcludedEntries: []string{},
		ExcludedErr:     errors.New("404"),
	})
	return src
}

func TestBuild(t *testing.T) {
	t.Run("one scope per site", func(t *testing.T) {
		src := newSiteSource()
		finder, err := Build(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, 3, finder.Len())
		src.AssertExpectations(t)
	})

	t.Run("site listing failure", func(t *testing.T) {
		src := new(MockSource)
		src.On("ListSites", mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := Build(context.Background(), src)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list sites")
	})
}

func TestFinder_Find(t *testing.T) {
	finder, err := Build(context.Background(), newSiteSource())
	require.NoError(t, err)

	t.Run("excluded from A and included in B", func(t *testing.T) {
		m := finder.Find("10.0.0.3")
		assert.Equal(t, []string{"Site B", "Site C"}, m.SiteNames())
	})

	t.Run("overlapping sites are all reported in site order", func(t *testing.T) {
		m := finder.Find(" 10.0.0.2 ")
		assert.Equal(t, "10.0.0.2", m.Address)
		assert.Equal(t, []string{"Site A", "Site C"}, m.SiteNames())
	})

	t.Run("single site", func(t *testing.T) {
		assert.Equal(t, []string{"Site A"}, finder.Find("10.0.0.5").SiteNames())
	})

	t.Run("no site", func(t *testing.T) {
		assert.Empty(t, finder.Find("192.0.2.1").Sites)
	})

	t.Run("find all skips blank lines", func(t *testing.T) {
		matches := finder.FindAll([]string{"10.0.0.5", "", "192.0.2.1", "  "})
		require.Len(t, matches, 2)

		report := NewReport(matches)
		out, err := renderer.NewRenderer("").RenderBuiltin(renderer.SiteFinderTemplate, report)
		require.NoError(t, err)
		assert.Equal(t, "Site Finder Results\n10.0.0.5: Site A\n192.0.2.1: no matching site\n", string(out))
	})
}
