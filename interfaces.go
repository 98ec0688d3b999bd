package drivershim

// ServerDeviceProvider is the versioned provider contract the host
// obtains from DriverFactory and drives for the module's lifetime.
type ServerDeviceProvider interface {
	// Lifecycle
	Init(dc *DriverContext) error
	Cleanup()
	RunFrame()

	// Discovery
	GetInterfaceVersions() []string

	// Standby
	ShouldBlockStandbyMode() bool
	EnterStandby()
	LeaveStandby()
}

// TrackedDeviceServer is the device interface the host calls on every
// registered tracked device. The shim implements it by wrapping another
// TrackedDeviceServer instance.
type TrackedDeviceServer interface {
	Activate(objectID uint32) error
	Deactivate()
	EnterStandby()

	// GetComponent resolves a named, optional capability of the device,
	// or nil when the device does not expose it.
	GetComponent(nameAndVersion string) any

	GetPose() Pose
	DebugRequest(request string) string
}

// DisplayComponent is the display capability an HMD-class device exposes
// through GetComponent(DisplayComponentVersion).
type DisplayComponent interface {
	GetWindowBounds() WindowBounds
	IsDisplayOnDesktop() bool
	IsDisplayRealDisplay() bool
	GetRecommendedRenderTargetSize() (width, height uint32)
	GetEyeOutputViewport(eye Eye) Viewport
	GetProjectionRaw(eye Eye) Projection
	ComputeDistortion(eye Eye, u, v float64) DistortionCoordinates
	ComputeInverseDistortion(eye Eye, channel uint32, u, v float64) (Vector2, bool)
}

// ServerDriverHost is the host-side callback surface handed to drivers.
// TrackedDeviceAdded is the interaction point the shim redirects.
type ServerDriverHost interface {
	TrackedDeviceAdded(serial string, class DeviceClass, device TrackedDeviceServer) bool

	// VendorSpecificEvent queues an event for the host to process on its
	// next frame.
	VendorSpecificEvent(deviceIndex uint32, eventType EventType, ageSeconds float64)

	// PollNextEvent pops the next pending event, reporting false when
	// the queue is drained.
	PollNextEvent() (Event, bool)
}

// PropertyStore is the host's per-device property surface. The shim
// publishes its override resources here and disables the hidden-area
// meshes through it.
type PropertyStore interface {
	SetString(deviceIndex uint32, prop Property, value string) error

	// SetHiddenArea replaces the occlusion mesh for one eye; an empty
	// vertex list disables the mesh.
	SetHiddenArea(eye Eye, kind HiddenAreaMeshKind, vertices []Vector2) error
}

// InterfaceLookup resolves a versioned host interface by name, the way
// the host's generic-interface entry point does. The registration-hook
// target is located through it.
type InterfaceLookup interface {
	GetGenericInterface(nameAndVersion string) (any, error)
}

// EventSink accepts events injected into the host's per-frame queue.
// Implemented by embedding hosts so the settings watcher and the tuning
// bridge can signal configuration changes.
type EventSink interface {
	PostEvent(ev Event)
}

// DriverContext bundles everything the host supplies at Init. Host,
// Properties and Interfaces are owned by the host and stay valid until
// process exit.
type DriverContext struct {
	Host       ServerDriverHost
	Properties PropertyStore
	Settings   Settings
	Interfaces InterfaceLookup

	// Optional; defaulted when nil.
	Log   Logger
	Clock Clock
}
