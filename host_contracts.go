package drivershim

// Host-side contract notes:
//
// The host runtime is responsible for constructing a DriverContext and
// passing it into the provider via Init(dc). The provider it drives is
// the singleton returned by DriverFactory(ServerProviderVersion).
//
// The host's generic-interface lookup must expose its ServerDriverHost
// callback surface as a *DispatchTable under ServerDriverHostVersion,
// with the device-registration entry point at SlotTrackedDeviceAdded
// holding a DeviceAddedFunc. Driver modules registering devices must
// call through that table (bracketed by EnterFrom for caller-identity
// tracking), never through a copied function value, or installed hooks
// will not be observed.
//
// A typical host frame loop:
//
//	for each driver provider p:
//	    p.RunFrame()
//	process pending render work, distortion mesh rebuilds, ...
//
// When the host rewrites any driver settings section it must push an
// Event{Type: EventDriverSettingsChanged} onto the queue served by
// PollNextEvent. Hosts that delegate settings storage to a file can use
// SettingsWatcher to produce that event instead.
//
// This file is documentation-only (no runtime code required).
