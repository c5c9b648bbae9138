package ippool

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeContains(t *testing.T) {
	tests := []struct {
		name     string
		r        Range
		ip       string
		expected bool
	}{
		{
			name:     "inside range",
			r:        NewRangeFromString("192.168.0.10", "192.168.0.100"),
			ip:       "192.168.0.50",
			expected: true,
		},
		{
			name:     "lower endpoint included",
			r:        NewRangeFromString("192.168.0.10", "192.168.0.100"),
			ip:       "192.168.0.10",
			expected: true,
		},
		{
			name:     "upper endpoint included",
			r:        NewRangeFromString("192.168.0.10", "192.168.0.100"),
			ip:       "192.168.0.100",
			expected: true,
		},
		{
			name:     "below range",
			r:        NewRangeFromString("192.168.0.10", "192.168.0.100"),
			ip:       "192.168.0.9",
			expected: false,
		},
		{
			name:     "above range",
			r:        NewRangeFromString("192.168.0.10", "192.168.0.100"),
			ip:       "192.168.0.101",
			expected: false,
		},
		{
			name:     "numeric not lexical comparison",
			r:        NewRangeFromString("10.0.5.9", "10.0.5.100"),
			ip:       "10.0.5.45",
			expected: true,
		},
		{
			name:     "invalid range matches nothing",
			r:        NewRangeFromString("not-an-ip", "192.168.0.100"),
			ip:       "192.168.0.50",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.r.Contains(netip.MustParseAddr(tt.ip)))
		})
	}
}

func TestRangeIsValid(t *testing.T) {
	assert.True(t, NewRangeFromString("192.168.0.10", "192.168.0.100").IsValid())
	assert.False(t, NewRangeFromString("192.168.0.100", "192.168.0.10").IsValid(), "reversed endpoints")
	assert.False(t, Range{}.IsValid())
	assert.False(t, NewRangeFromString("garbage", "192.168.0.10").IsValid())
}

func TestRangeSize(t *testing.T) {
	assert.Equal(t, int64(91), NewRangeFromString("192.168.0.10", "192.168.0.100").Size())
	assert.Equal(t, int64(1), NewRangeFromString("192.168.0.10", "192.168.0.10").Size())
	assert.Equal(t, int64(0), Range{}.Size())
}

func TestPool(t *testing.T) {
	pool := NewPool(
		NewRangeFromString("192.168.0.10", "192.168.0.100"),
		NewRangeFromString("192.168.1.10", "192.168.1.19"),
	)

	assert.True(t, pool.Contains(netip.MustParseAddr("192.168.0.50")))
	assert.True(t, pool.Contains(netip.MustParseAddr("192.168.1.15")))
	assert.False(t, pool.Contains(netip.MustParseAddr("192.168.2.1")))

	assert.Equal(t, int64(101), pool.Size())
	assert.Equal(t, int64(0), NewPool().Size())
}
