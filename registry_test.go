package drivershim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewShimRegistry()
	r.Add(nil)
	assert.Equal(t, 0, r.Len())

	f1 := newShimFixture(true)
	f2 := newShimFixture(true)
	r.Add(f1.shim)
	r.Add(f2.shim)
	assert.Equal(t, 2, r.Len())

	r.Remove(f1.shim)
	assert.Equal(t, 1, r.Len())
	// Removing an absent shim is a no-op.
	r.Remove(f1.shim)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryBroadcast(t *testing.T) {
	f1 := newShimFixture(true)
	f2 := newShimFixture(true)
	require.NoError(t, f1.shim.Activate(1))
	require.NoError(t, f2.shim.Activate(2))

	r := NewShimRegistry()
	r.Add(f1.shim)
	r.Add(f2.shim)

	f1.settings.SetFloat(SettingsSection, "left_red_k1", 0.001)
	f2.settings.SetFloat(SettingsSection, "right_blue_k2", 0.002)
	r.ApplySettingsChanges()

	assert.Len(t, f1.host.vendorEvents(), 1)
	assert.Len(t, f2.host.vendorEvents(), 1)
}
