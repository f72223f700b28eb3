package pipeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusprobe/internal/core/model"
)

func addresses(targets []model.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Address)
	}
	sort.Strings(out)
	return out
}

func TestParseAddress_Kinds(t *testing.T) {
	cases := []struct {
		in   string
		kind model.AddressKind
	}{
		{"1.2.3.4", model.AddressIPv4},
		{"  8.8.8.8  ", model.AddressIPv4},
		{"10.0.0.0/24", model.AddressIPv4CIDR},
		{"10.0.0.7/30", model.AddressIPv4CIDR},
		{"::1", model.AddressIPv6},
		{"2001:db8::1", model.AddressIPv6},
		{"::ffff:1.2.3.4", model.AddressIPv6},
		{"2001:db8::/32", model.AddressIPv6CIDR},
		{"example.com", model.AddressDomain},
		{"sub.example.com:8080", model.AddressDomain},
		{"http://example.com/path", model.AddressDomain},
		{"https://example.com", model.AddressDomain},
		{"http://[2001:db8::1]:80", model.AddressIPv6},
		{"not a host", model.AddressUnsupported},
		{"1.2.3.256", model.AddressUnsupported},
		{"999.999.999.999", model.AddressUnsupported},
		{"256.1.1.1/24", model.AddressUnsupported},
		{"1.2.3.4.5", model.AddressUnsupported},
		{"http://1.2.3.256:8080", model.AddressUnsupported},
		{"127.0.0.1:1234", model.AddressDomain},
		{"", model.AddressUnsupported},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.kind, ParseAddress(c.in).Kind)
		})
	}
}

func TestParseAddress_DomainHost(t *testing.T) {
	p := ParseAddress("http://example.com:8080/login")
	assert.Equal(t, model.AddressDomain, p.Kind)
	assert.Equal(t, "example.com:8080", p.Host)
	assert.Equal(t, "http://example.com:8080/login", p.Raw)
}

func TestParseAddress_CIDRMasked(t *testing.T) {
	p := ParseAddress("10.0.0.7/30")
	assert.Equal(t, netip.MustParsePrefix("10.0.0.4/30"), p.Prefix)
}

func TestExpand_Scenario_CIDRAndDuplicateLiteral(t *testing.T) {
	targets, err := NewAddressExpander(8).Expand([]string{"1.2.3.0/30", "1.2.3.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.0", "1.2.3.1", "1.2.3.2", "1.2.3.3"}, addresses(targets))
}

func TestExpand_BlockSizeK(t *testing.T) {
	for bits := 24; bits <= 32; bits++ {
		cidr := fmt.Sprintf("192.168.0.0/%d", bits)
		k := 1 << (32 - bits)

		targets, err := NewAddressExpander(8).Expand([]string{cidr})
		require.NoError(t, err, cidr)
		assert.Len(t, targets, k, cidr)

		seen := make(map[string]struct{}, k)
		for _, tgt := range targets {
			addr, err := netip.ParseAddr(tgt.Address)
			require.NoError(t, err)
			assert.True(t, addr.Is4())
			assert.Equal(t, model.AddressIPv4, tgt.Kind)
			seen[tgt.Address] = struct{}{}
		}
		assert.Len(t, seen, k, "duplicates in %s", cidr)
	}
}

func TestExpand_Dedup(t *testing.T) {
	lines := []string{
		"10.0.0.1", "10.0.0.1", "10.0.0.1",
		"10.0.0.0/29", "10.0.0.4/30", // 重叠网段
		"example.com", "example.com",
	}
	targets, err := NewAddressExpander(8).Expand(lines)
	require.NoError(t, err)

	got := addresses(targets)
	assert.Len(t, got, 9)
	assert.Contains(t, got, "example.com")

	count := 0
	for _, a := range got {
		if a == "10.0.0.1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExpand_DropsUnsupportedSilently(t *testing.T) {
	e := NewAddressExpander(8)
	targets, err := e.Expand([]string{"::1", "2001:db8::/64", "bad entry", "1.2.3.256", "1.1.1.1", "# comment"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1"}, addresses(targets))

	stats := e.Stats()
	assert.Equal(t, 2, stats.IPv6)
	assert.Equal(t, 2, stats.Invalid)
	assert.Equal(t, 1, stats.Expanded)
}

func TestExpand_EmptyInputIsInputError(t *testing.T) {
	inputs := [][]string{
		nil,
		{"", "   ", "\t"},
		{"::1", "fe80::/10", "not valid at all"},
		{"1.2.3.256", "999.999.999.999", "256.1.1.1/24", "1.2.3.4.5"},
	}
	for _, lines := range inputs {
		_, err := NewAddressExpander(8).Expand(lines)
		require.Error(t, err)

		var inErr *model.InputError
		assert.True(t, errors.As(err, &inErr))
		assert.ErrorIs(t, err, model.ErrNoTargets)
	}
}

func TestExpand_SkipsTooWidePrefix(t *testing.T) {
	e := NewAddressExpander(16)
	targets, err := e.Expand([]string{"10.0.0.0/8", "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, addresses(targets))
	assert.Equal(t, 1, e.Stats().TooWide)
}

func TestExpand_DomainKeepsLiteral(t *testing.T) {
	targets, err := NewAddressExpander(8).Expand([]string{"example.com:8080"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "example.com:8080", targets[0].Address)
	assert.Equal(t, "example.com:8080", targets[0].Host)
	assert.True(t, targets[0].IsDomain())
}

func TestLoadTargetLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ips-v4.txt")
	require.NoError(t, os.WriteFile(path, []byte("\ufeff1.2.3.4\n\nexample.com\r\n"), 0644))

	lines, err := LoadTargetLines(path)
	require.NoError(t, err)

	targets, err := NewAddressExpander(8).Expand(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4", "example.com"}, addresses(targets))
}

func TestLoadTargetLines_Missing(t *testing.T) {
	_, err := LoadTargetLines(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)

	var inErr *model.InputError
	require.True(t, errors.As(err, &inErr))
	assert.ErrorIs(t, err, model.ErrInputUnreadable)
}

func TestSplitTargetList(t *testing.T) {
	assert.Equal(t, []string{"1.1.1.1", "example.com"}, SplitTargetList(" 1.1.1.1 ,, example.com,"))
}

func TestShuffle_Permutation(t *testing.T) {
	targets, err := NewAddressExpander(8).Expand([]string{"10.1.0.0/26"})
	require.NoError(t, err)
	before := addresses(targets)

	Shuffle(targets, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, before, addresses(targets))
}
