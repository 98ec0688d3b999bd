package drivershim

import "errors"

// Interface version strings exchanged with the host. The factory and the
// generic-interface lookup key on these names.
const (
	ServerProviderVersion      = "IServerDeviceProvider_004"
	DeviceServerVersion        = "ITrackedDeviceServer_005"
	DisplayComponentVersion    = "IDisplayComponent_003"
	DirectModeComponentVersion = "IDriverDirectModeComponent_008"
	VirtualDisplayVersion      = "IVirtualDisplay_005"
	ServerDriverHostVersion    = "IServerDriverHost_006"
)

// InterfaceVersions lists every interface version this module implements,
// in the order the host expects to probe them.
var InterfaceVersions = []string{
	ServerProviderVersion,
	DeviceServerVersion,
	DisplayComponentVersion,
	ServerDriverHostVersion,
}

// SlotTrackedDeviceAdded is the dispatch-table slot of the host's
// device-registration entry point within ServerDriverHostVersion.
const SlotTrackedDeviceAdded = 0

// DeviceClass identifies the kind of tracked device being registered.
type DeviceClass int32

const (
	DeviceClassInvalid DeviceClass = iota
	DeviceClassHMD
	DeviceClassController
	DeviceClassGenericTracker
	DeviceClassTrackingReference
)

// Eye selects the left or right display channel. Values double as array
// indices into per-eye state.
type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

// InvalidDeviceIndex marks a device that is not currently activated.
const InvalidDeviceIndex uint32 = 0xFFFFFFFF

// EventType identifies host event-queue entries this module reacts to or
// emits.
type EventType uint32

const (
	EventNone EventType = iota
	// EventDriverSettingsChanged is observed on the host queue whenever
	// any driver settings section is rewritten.
	EventDriverSettingsChanged
	// EventLensDistortionChanged is emitted back to the host so it
	// regenerates its distortion mesh.
	EventLensDistortionChanged
)

// Event is one entry of the host's per-frame event queue.
type Event struct {
	Type        EventType
	DeviceIndex uint32
	AgeSeconds  float64
}

// Pose is the tracked pose reported by a device. Forwarded opaquely by
// the shim; only the wrapped device interprets it.
type Pose struct {
	Position        [3]float64
	Rotation        [4]float64 // unit quaternion, w first
	Valid           bool
	DeviceConnected bool
}

// Vector2 is a 2D coordinate in pixel, tangent or UV space.
type Vector2 struct {
	X float64
	Y float64
}

// DistortionCoordinates carries the per-channel output UVs of a
// distortion evaluation.
type DistortionCoordinates struct {
	Red   Vector2
	Green Vector2
	Blue  Vector2
}

// Viewport is an eye's output region on the display, in pixels.
type Viewport struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// WindowBounds is the display window placement on the desktop.
type WindowBounds struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// Projection holds an eye's raw frustum tangents. Left and top are
// conventionally negative; consumers take absolute values.
type Projection struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Property names the shim publishes into a device's property store.
type Property string

const (
	PropResourceRoot           Property = "resource_root"
	PropAdditionalSettingsPath Property = "additional_settings_path"
)

// HiddenAreaMeshKind selects between the standard occlusion mesh and its
// inverse.
type HiddenAreaMeshKind int

const (
	HiddenAreaMeshStandard HiddenAreaMeshKind = iota
	HiddenAreaMeshInverse
)

// Sentinel errors reported across the plugin boundary. The host maps
// these to its own init-error codes; neither may surface as a panic.
var (
	// ErrDeviceNotFound is the benign init failure reported when the
	// registration hook could not be installed.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInterfaceNotFound is returned by the factory for interface
	// names this module does not provide.
	ErrInterfaceNotFound = errors.New("interface not found")
)
