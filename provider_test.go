package drivershim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFixture struct {
	host     *fakeHost
	props    *fakeProps
	settings *MapSettings
	table    *DispatchTable
	dc       *DriverContext
	provider *ShimProvider
}

func newProviderFixture() *providerFixture {
	f := &providerFixture{
		host:     &fakeHost{addResult: true},
		props:    newFakeProps(),
		settings: passthroughSettings(),
	}
	f.table = newHostTable(f.host)
	f.dc = newTestContext(f.host, f.props, f.settings)
	f.dc.Interfaces = &fakeLookup{interfaces: map[string]any{
		ServerDriverHostVersion: f.table,
	}}
	f.provider = NewShimProvider(WithLogger(NewNopLogger()))
	return f
}

func TestDriverFactorySingleton(t *testing.T) {
	first, err := DriverFactory(ServerProviderVersion)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := DriverFactory(ServerProviderVersion)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// The provider satisfies the full lifecycle contract.
	_, ok := first.(ServerDeviceProvider)
	assert.True(t, ok)
}

func TestDriverFactoryUnknownInterface(t *testing.T) {
	got, err := DriverFactory("IUnknownInterface_001")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrInterfaceNotFound)
}

func TestInitInstallsHookOnce(t *testing.T) {
	f := newProviderFixture()

	require.NoError(t, f.provider.Init(f.dc))

	// The registration slot now routes through the interceptor.
	device := newFakeDevice()
	callDeviceAdded(f.table, f.host, "HMD-1", DeviceClassHMD, device)
	require.Len(t, f.host.added, 1)
	_, isShim := f.host.added[0].device.(*HmdShim)
	assert.True(t, isShim)

	// Repeated Init neither fails nor re-wraps the slot.
	require.NoError(t, f.provider.Init(f.dc))
	callDeviceAdded(f.table, f.host, "HMD-2", DeviceClassHMD, newFakeDevice())
	require.Len(t, f.host.added, 2)
	shim := f.host.added[1].device.(*HmdShim)
	_, doubleWrapped := shim.device.(*HmdShim)
	assert.False(t, doubleWrapped)
}

func TestInitFailsBenignlyWithoutHostTable(t *testing.T) {
	f := newProviderFixture()
	f.dc.Interfaces = &fakeLookup{interfaces: map[string]any{}}

	err := f.provider.Init(f.dc)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	// A non-table interface value is equally benign.
	f.dc.Interfaces = &fakeLookup{interfaces: map[string]any{
		ServerDriverHostVersion: "not a table",
	}}
	err = f.provider.Init(f.dc)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	// Nil context too.
	assert.ErrorIs(t, NewShimProvider().Init(nil), ErrDeviceNotFound)
}

func TestProviderDiscoveryAndStandby(t *testing.T) {
	p := NewShimProvider()
	assert.Equal(t, InterfaceVersions, p.GetInterfaceVersions())
	assert.False(t, p.ShouldBlockStandbyMode())
	assert.NotPanics(t, func() {
		p.EnterStandby()
		p.LeaveStandby()
		p.Cleanup()
		p.RunFrame()
	})
}

func TestRunFrameBroadcastsSettingsChanges(t *testing.T) {
	f := newProviderFixture()
	require.NoError(t, f.provider.Init(f.dc))

	device := newFakeDevice()
	device.components[DisplayComponentVersion] = newFakeDisplay()
	callDeviceAdded(f.table, f.host, "HMD-1", DeviceClassHMD, device)
	shim := f.host.added[0].device.(*HmdShim)
	require.NoError(t, shim.Activate(4))

	// Unrelated events are drained without effect.
	f.host.PostEvent(Event{Type: EventNone})
	f.provider.RunFrame()
	assert.Equal(t, 0, f.host.pendingEvents())
	assert.Empty(t, f.host.vendorEvents())

	// A settings rewrite flows through to a lens-distortion signal.
	f.settings.SetFloat(SettingsSection, "left_red_k1", 0.0002)
	f.host.PostEvent(Event{Type: EventDriverSettingsChanged})
	f.provider.RunFrame()

	events := f.host.vendorEvents()
	require.Len(t, events, 1)
	assert.Equal(t, uint32(4), events[0].index)
	assert.Equal(t, EventLensDistortionChanged, events[0].eventType)
	assert.Equal(t, 0, f.host.pendingEvents())
}

func TestEndToEndRegistrationAndDistortion(t *testing.T) {
	f := newProviderFixture()
	require.NoError(t, f.provider.Init(f.dc))

	device := newFakeDevice()
	device.components[DisplayComponentVersion] = newFakeDisplay()
	ok := callDeviceAdded(f.table, f.host, "HMD-7", DeviceClassHMD, device)
	assert.True(t, ok)

	shim := f.host.added[0].device.(*HmdShim)
	require.NoError(t, shim.Activate(7))

	// Pass-through configuration: the shim's override is the identity.
	out := shim.ComputeDistortion(EyeLeft, 0.5, 0.5)
	for _, ch := range []Vector2{out.Red, out.Green, out.Blue} {
		assert.InDelta(t, 0.5, ch.X, 1e-12)
		assert.InDelta(t, 0.5, ch.Y, 1e-12)
	}
	assert.Equal(t, 1, f.provider.Registry().Len())

	shim.Deactivate()
	assert.Equal(t, 0, f.provider.Registry().Len())
}
