package targets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name  string
		entry string
		kind  Kind
		start string
		end   string
	}{
		{name: "single address", entry: "10.0.0.1", kind: Literal, start: "10.0.0.1", end: "10.0.0.1"},
		{name: "spaced range", entry: "10.0.0.1 - 10.0.0.3", kind: Range, start: "10.0.0.1", end: "10.0.0.3"},
		{name: "compact range", entry: "10.0.0.1-10.0.0.5", kind: Range, start: "10.0.0.1", end: "10.0.0.5"},
		{name: "prefix", entry: "192.168.1.0/30", kind: Prefix, start: "192.168.1.0", end: "192.168.1.3"},
		{name: "unmasked prefix", entry: "192.168.1.9/29", kind: Prefix, start: "192.168.1.8", end: "192.168.1.15"},
		{name: "ipv6 range", entry: "fe80::1 - fe80::3", kind: Range, start: "fe80::1", end: "fe80::3"},
		{name: "hostname", entry: "web-01.corp.example.com", kind: Literal},
		{name: "reversed range", entry: "10.0.0.9 - 10.0.0.1", kind: Literal},
		{name: "mixed families", entry: "10.0.0.1 - fe80::1", kind: Literal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := Parse(tc.entry)
			assert.Equal(t, tc.kind, target.Kind)
			if tc.start != "" {
				assert.Equal(t, tc.start, target.Start.String())
				assert.Equal(t, tc.end, target.End.String())
			}
		})
	}
}

func TestExpand(t *testing.T) {
	t.Run("inclusive range in ascending order", func(t *testing.T) {
		got, err := Expand("10.0.0.1 - 10.0.0.3")
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, got)
	})

	t.Run("range across an octet boundary", func(t *testing.T) {
		got, err := Expand("10.0.0.254 - 10.0.1.1")
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.254", "10.0.0.255", "10.0.1.0", "10.0.1.1"}, got)
	})

	t.Run("single address", func(t *testing.T) {
		got, err := Expand("10.0.0.7")
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.7"}, got)
	})

	t.Run("hostname stays literal", func(t *testing.T) {
		got, err := Expand("db01.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"db01.example.com"}, got)
	})

	t.Run("prefix", func(t *testing.T) {
		got, err := Expand("172.16.0.0/31")
		require.NoError(t, err)
		assert.Equal(t, []string{"172.16.0.0", "172.16.0.1"}, got)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Expand("10.0.0.0/7")
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestExpandAll(t *testing.T) {
	got := ExpandAll([]string{"10.0.0.1 - 10.0.0.2", "host-a", "10.0.0.0/7", "10.0.0.9"})
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "host-a", "10.0.0.0/7", "10.0.0.9"}, got)
}

func TestExpandAll_ListBudget(t *testing.T) {
	got := expandAll([]string{"10.0.0.1 - 10.0.0.3", "10.0.1.0/30", "10.0.0.9"}, 5)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.1.0/30", "10.0.0.9"}, got)

	t.Run("a /8 is not materialized", func(t *testing.T) {
		got := ExpandAll([]string{"10.0.0.0 - 10.255.255.255", "10.0.0.1"})
		assert.Equal(t, []string{"10.0.0.0 - 10.255.255.255", "10.0.0.1"}, got)
	})
}

func TestCount(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []string
		expected uint64
	}{
		{name: "empty", entries: nil, expected: 0},
		{name: "literals", entries: []string{"10.0.0.1", "fileserver"}, expected: 2},
		{name: "range and prefix", entries: []string{"10.0.0.1 - 10.0.0.3", "172.16.0.0/30"}, expected: 7},
		{name: "class A range", entries: []string{"10.0.0.0 - 10.255.255.255"}, expected: 1 << 24},
		{name: "whole IPv6 space saturates", entries: []string{"::/0"}, expected: math.MaxUint64},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Count(tc.entries))
		})
	}
}

func TestTarget_Contains(t *testing.T) {
	r := Parse("10.0.0.1 - 10.0.0.5")
	assert.True(t, r.Contains("10.0.0.1"))
	assert.True(t, r.Contains("10.0.0.5"))
	assert.False(t, r.Contains("10.0.0.6"))
	assert.False(t, r.Contains("fe80::1"))
	assert.False(t, r.Contains("not-an-ip"))

	h := Parse("fileserver")
	assert.True(t, h.Contains("fileserver"))
	assert.False(t, h.Contains("10.0.0.1"))
}
