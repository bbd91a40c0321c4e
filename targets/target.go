package targets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"net/netip"
	"strings"
)

// MaxExpansion bounds how many literal addresses a single entry may expand to
const MaxExpansion = 1 << 24

// MaxListExpansion bounds how many literal addresses ExpandAll produces for one
// list. Entries that would cross it are kept as raw entries
const MaxListExpansion = 1 << 20

// ErrTooLarge is returned when a range holds more than MaxExpansion addresses
var ErrTooLarge = errors.New("target range too large to expand")

// Kind tells how a target entry was interpreted
type Kind int

const (
	// Literal is a single address or hostname, matched as-is
	Literal Kind = iota
	// Range is an inclusive "start - end" address range
	Range
	// Prefix is a CIDR block
	Prefix
)

func (k Kind) String() string {
	switch k {
	case Range:
		return "range"
	case Prefix:
		return "prefix"
	default:
		return "literal"
	}
}

// Target is one entry of a site's included or excluded target list
type Target struct {
	Raw   string
	Kind  Kind
	Start netip.Addr
	End   netip.Addr
}

// Parse interprets an entry. Anything that is not a well-formed range or prefix
// (hostnames, reversed ranges, mixed address families) is a Literal
func Parse(entry string) Target {
	raw := strings.TrimSpace(entry)
	t := Target{Raw: raw, Kind: Literal}

	if p, err := netip.ParsePrefix(raw); err == nil {
		p = p.Masked()
		t.Kind = Prefix
		t.Start = p.Addr()
		t.End = lastAddr(p)
		return t
	}

	if addr, err := netip.ParseAddr(raw); err == nil {
		t.Start = addr.Unmap()
		t.End = t.Start
		return t
	}

	start, end, ok := strings.Cut(raw, "-")
	if !ok {
		return t
	}
	s, err := netip.ParseAddr(strings.TrimSpace(start))
	if err != nil {
		return t
	}
	e, err := netip.ParseAddr(strings.TrimSpace(end))
	if err != nil {
		return t
	}
	s, e = s.Unmap(), e.Unmap()
	if s.Is4() != e.Is4() || s.Compare(e) > 0 {
		return t
	}
	t.Kind = Range
	t.Start = s
	t.End = e
	return t
}

// Contains reports whether addr is covered by the target
func (t Target) Contains(addr string) bool {
	addr = strings.TrimSpace(addr)
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return t.Kind == Literal && t.Raw == addr
	}
	a = a.Unmap()
	if !t.Start.IsValid() {
		return false
	}
	if a.Is4() != t.Start.Is4() {
		return false
	}
	return t.Start.Compare(a) <= 0 && a.Compare(t.End) <= 0
}

// Expand returns every literal address covered by the target in ascending order
func (t Target) Expand() ([]string, error) {
	if t.Kind == Literal {
		if t.Start.IsValid() {
			return []string{t.Start.String()}, nil
		}
		return []string{t.Raw}, nil
	}

	n, ok := span(t.Start, t.End)
	if !ok || n > MaxExpansion {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, t.Raw)
	}
	out := make([]string, 0, n)
	for a := t.Start; ; a = a.Next() {
		out = append(out, a.String())
		if a == t.End {
			break
		}
	}
	return out, nil
}

// Expand parses and expands a single entry
func Expand(entry string) ([]string, error) {
	return Parse(entry).Expand()
}

// ExpandAll flattens a target list into literal addresses, preserving entry order
// Entries too large to expand, or that would take the list past
// MaxListExpansion, are kept verbatim
func ExpandAll(entries []string) []string {
	return expandAll(entries, MaxListExpansion)
}

func expandAll(entries []string, budget uint64) []string {
	out := make([]string, 0, len(entries))
	var total uint64
	for _, entry := range entries {
		t := Parse(entry)
		if n, ok := t.Size(); !ok || n > budget-total {
			slog.Warn("Keeping target entry unexpanded", "entry", t.Raw, "error", ErrTooLarge)
			out = append(out, t.Raw)
			continue
		}
		expanded, err := t.Expand()
		if err != nil {
			slog.Warn("Keeping target entry unexpanded", "entry", t.Raw, "error", err)
			out = append(out, t.Raw)
			continue
		}
		total += uint64(len(expanded))
		out = append(out, expanded...)
	}
	return out
}

// Size returns how many addresses the target covers without expanding it
// ok is false when the count does not fit in a uint64
func (t Target) Size() (uint64, bool) {
	if t.Kind == Literal {
		return 1, true
	}
	return span(t.Start, t.End)
}

// Count totals the addresses covered by entries, saturating at math.MaxUint64
// Overlapping entries are counted twice, as they would be in ExpandAll
func Count(entries []string) uint64 {
	var total uint64
	for _, entry := range entries {
		n, ok := Parse(entry).Size()
		if !ok {
			return math.MaxUint64
		}
		sum, carry := bits.Add64(total, n, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// span counts the addresses in [start, end]; ok is false when the count overflows
func span(start, end netip.Addr) (uint64, bool) {
	s, e := start.As16(), end.As16()
	sHi, sLo := binary.BigEndian.Uint64(s[:8]), binary.BigEndian.Uint64(s[8:])
	eHi, eLo := binary.BigEndian.Uint64(e[:8]), binary.BigEndian.Uint64(e[8:])
	diffLo, borrow := bits.Sub64(eLo, sLo, 0)
	diffHi, _ := bits.Sub64(eHi, sHi, borrow)
	if diffHi != 0 || diffLo == math.MaxUint64 {
		return 0, false
	}
	return diffLo + 1, true
}

func lastAddr(p netip.Prefix) netip.Addr {
	a := p.Addr()
	ones := p.Bits()
	if a.Is4() {
		b := a.As4()
		for i := range b {
			b[i] |= hostMask(ones, i)
		}
		return netip.AddrFrom4(b)
	}
	b := a.As16()
	for i := range b {
		b[i] |= hostMask(ones, i)
	}
	return netip.AddrFrom16(b)
}

// hostMask returns the host bits of byte i for a prefix of the given length
func hostMask(ones, i int) byte {
	prefixBitsInByte := ones - i*8
	switch {
	case prefixBitsInByte >= 8:
		return 0
	case prefixBitsInByte <= 0:
		return 0xff
	default:
		return 0xff >> prefixBitsInByte
	}
}
