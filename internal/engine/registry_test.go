package engine

import (
	"testing"
	"time"

	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_RoundTrip(t *testing.T) {
	tests := []struct {
		id   Identity
		want string
	}{
		{Identity{Window: 0x1001, Seq: 1}, "1001|r|1"},
		{Identity{Window: 0xabc, Path: []int{1, 0, 12}, Seq: 3}, "abc|1.0.12|3"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.String())
			parsed, err := ParseIdentity(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}
}

func TestParseIdentity_Malformed(t *testing.T) {
	for _, s := range []string{"", "1001", "1001|r", "zz|r|1", "0|r|1", "1001|a.b|1", "1001|-1|1", "1001|r|x", "1001|r|1|2"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseIdentity(s)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_ExpiresFingerprints(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	var sizes []int
	r.onSize = func(n int) { sizes = append(sizes, n) }

	id := r.Register(0x10, []int{0}, 1, platform.NodeInfo{ControlType: "Button", RuntimeID: []int{42, 7}})
	fp, ok := r.lookup(id)
	require.True(t, ok)
	assert.Equal(t, "Button#42.7", fp)

	now = now.Add(2 * time.Minute)
	_, ok = r.lookup(id)
	assert.False(t, ok)

	// Sweeps drop expired entries once enough registrations accumulate.
	for i := 0; i < sweepEvery; i++ {
		r.Register(0x10, []int{1, i}, 1, platform.NodeInfo{ControlType: "Button", RuntimeID: []int{42, i}})
	}
	assert.Equal(t, sweepEvery, r.Len())
	assert.Equal(t, r.Len(), sizes[len(sizes)-1])
}

func TestRegistry_ResetAndInvalidate(t *testing.T) {
	r := NewRegistry(time.Minute)
	gen := r.Generation()
	r.Register(0x10, nil, 1, platform.NodeInfo{ControlType: "Window"})
	r.Register(0x20, nil, 1, platform.NodeInfo{ControlType: "Window"})
	require.Equal(t, 2, r.Len())

	r.InvalidateWindow(0x10)
	assert.Equal(t, 1, r.Len())

	r.Reset()
	assert.Zero(t, r.Len())
	assert.NotEqual(t, gen, r.Generation())
}

func TestFingerprint_FallsBackWithoutRuntimeID(t *testing.T) {
	a := fingerprint(platform.NodeInfo{ControlType: "Edit", AutomationID: "user", ClassName: "TextBox"})
	b := fingerprint(platform.NodeInfo{ControlType: "Edit", AutomationID: "pass", ClassName: "TextBox"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, fingerprint(platform.NodeInfo{ControlType: "Edit", AutomationID: "user", ClassName: "TextBox", Name: "renamed"}))
}
