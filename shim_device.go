package drivershim

import (
	"math"

	"github.com/google/uuid"
)

// HmdShim wraps another TrackedDeviceServer with the intent to override
// its lens distortion correction. It implements the device interface and
// the display capability, forwarding every untouched call to the wrapped
// device and recomputing ComputeDistortion from configuration.
type HmdShim struct {
	device   TrackedDeviceServer // wrapped device, set once
	host     ServerDriverHost    // host callback, set once
	dc       *DriverContext
	registry *ShimRegistry
	id       uuid.UUID
	log      Logger

	deviceIndex uint32
	display     DisplayComponent

	// notDirectMode marks a device that exposed an alternate rendering
	// path capability; the override math assumes the native direct path
	// and the shim degrades to a pure pass-through for distortion.
	notDirectMode bool

	// components caches capability negotiation: each name is resolved
	// against the wrapped device once.
	components map[string]any

	model  DistortionModel
	affine [EyeCount]EyeAffine
}

// NewHmdShim wraps device, registering the shim for settings-change
// broadcasts. The device and host references are borrowed for the shim's
// whole lifetime and never reassigned.
func NewHmdShim(device TrackedDeviceServer, host ServerDriverHost, dc *DriverContext, registry *ShimRegistry) *HmdShim {
	s := &HmdShim{
		device:      device,
		host:        host,
		dc:          dc,
		registry:    registry,
		id:          uuid.New(),
		log:         NewNopLogger(),
		deviceIndex: InvalidDeviceIndex,
		components:  make(map[string]any),
	}
	if dc != nil && dc.Log != nil {
		s.log = dc.Log
	}
	for eye := range s.affine {
		s.affine[eye] = EyeAffine{Forward: Identity3(), Inverse: Identity3()}
	}
	if registry != nil {
		registry.Add(s)
	}
	return s
}

// DeviceIndex returns the index assigned at activation, or
// InvalidDeviceIndex while inactive.
func (s *HmdShim) DeviceIndex() uint32 { return s.deviceIndex }

// Activate activates the wrapped device and, when it exposes a display
// capability, installs the distortion override: publishes the override
// resources into the property store, loads the model and disables the
// hidden-area meshes. The wrapped device's activation result is
// propagated unchanged.
func (s *HmdShim) Activate(objectID uint32) error {
	s.deviceIndex = objectID

	// Activate the real device driver first.
	err := s.device.Activate(objectID)

	if c := s.device.GetComponent(DisplayComponentVersion); c != nil {
		if d, ok := c.(DisplayComponent); ok {
			s.display = d
		}
	}

	if s.display == nil {
		// No display capability: the override is permanently skipped and
		// the shim stays a pure pass-through wrapper.
		s.log.Info("activated shim without display capability", "shim_id", s.id, "object_id", objectID)
		return err
	}

	if s.dc != nil && s.dc.Properties != nil {
		// Let host tooling surface the distortion settings.
		s.setStringProp(PropResourceRoot, ResourceRoot)
		s.setStringProp(PropAdditionalSettingsPath, SettingsSchemaPath)

		// A distortion override invalidates the default hidden-area
		// mesh. Recomputing it for the new lens geometry is a
		// customization point; here both meshes are disabled.
		for _, eye := range []Eye{EyeLeft, EyeRight} {
			for _, kind := range []HiddenAreaMeshKind{HiddenAreaMeshStandard, HiddenAreaMeshInverse} {
				if perr := s.dc.Properties.SetHiddenArea(eye, kind, nil); perr != nil {
					s.log.Warn("disabling hidden-area mesh failed", "eye", eye, "error", perr)
				}
			}
		}
	}

	s.ReadDistortionModel()
	s.log.Info("activated shimmed HMD", "shim_id", s.id, "object_id", objectID)
	return err
}

func (s *HmdShim) setStringProp(prop Property, value string) {
	if err := s.dc.Properties.SetString(s.deviceIndex, prop, value); err != nil {
		s.log.Warn("property write failed", "property", prop, "error", err)
	}
}

// Deactivate clears the device index, forwards and deregisters the shim
// from broadcast.
func (s *HmdShim) Deactivate() {
	s.deviceIndex = InvalidDeviceIndex
	s.device.Deactivate()
	if s.registry != nil {
		s.registry.Remove(s)
	}
	s.log.Info("deactivated shimmed device", "shim_id", s.id)
}

func (s *HmdShim) EnterStandby() { s.device.EnterStandby() }

// GetComponent negotiates capabilities: each name is resolved against
// the wrapped device once and the outcome cached. The display capability
// is substituted with the shim itself so later display calls route
// through it; alternate rendering path capabilities flip the shim to
// pass-through; every other name is forwarded untouched.
func (s *HmdShim) GetComponent(nameAndVersion string) any {
	if component, ok := s.components[nameAndVersion]; ok {
		return component
	}

	component := s.device.GetComponent(nameAndVersion)
	s.log.Debug("component lookup", "name", nameAndVersion, "found", component != nil)
	if component != nil {
		switch nameAndVersion {
		case DisplayComponentVersion:
			if d, ok := component.(DisplayComponent); ok {
				s.display = d
				component = s
			}
		case DirectModeComponentVersion, VirtualDisplayVersion:
			// The device renders through an alternate path the override
			// math does not model.
			s.notDirectMode = true
		}
	}

	s.components[nameAndVersion] = component
	return component
}

func (s *HmdShim) GetPose() Pose { return s.device.GetPose() }

func (s *HmdShim) DebugRequest(request string) string {
	return s.device.DebugRequest(request)
}

// Display capability, forwarding except for ComputeDistortion.

func (s *HmdShim) GetWindowBounds() WindowBounds { return s.display.GetWindowBounds() }

func (s *HmdShim) IsDisplayOnDesktop() bool { return s.display.IsDisplayOnDesktop() }

func (s *HmdShim) IsDisplayRealDisplay() bool { return s.display.IsDisplayRealDisplay() }

// GetRecommendedRenderTargetSize forwards as-is. Changing the distortion
// may require adjusting the resolution to keep the post-distortion pixel
// density; that adjustment is a customization point.
func (s *HmdShim) GetRecommendedRenderTargetSize() (uint32, uint32) {
	return s.display.GetRecommendedRenderTargetSize()
}

func (s *HmdShim) GetEyeOutputViewport(eye Eye) Viewport {
	return s.display.GetEyeOutputViewport(eye)
}

// GetProjectionRaw forwards as-is. A changed lens geometry may call for
// a matching FOV adjustment; also a customization point.
func (s *HmdShim) GetProjectionRaw(eye Eye) Projection {
	return s.display.GetProjectionRaw(eye)
}

// ComputeDistortion evaluates the override model: normalized input UVs
// go to pixels, each channel's Brown-Conrady scale applies to the
// centered coordinate, the inverse affine maps into tangent space, and
// the eye's aperture maps tangents back to output UVs. Devices on an
// alternate rendering path get the wrapped result verbatim.
func (s *HmdShim) ComputeDistortion(eye Eye, u, v float64) DistortionCoordinates {
	if s.notDirectMode {
		return s.display.ComputeDistortion(eye, u, v)
	}
	if s.display == nil || eye < 0 || int(eye) >= EyeCount {
		return DistortionCoordinates{}
	}

	vp := s.display.GetEyeOutputViewport(eye)
	x := u * float64(vp.Width)
	y := v * float64(vp.Height)

	proj := s.display.GetProjectionRaw(eye)
	left := math.Abs(proj.Left)
	right := math.Abs(proj.Right)
	top := math.Abs(proj.Top)
	bottom := math.Abs(proj.Bottom)
	horizontalAperture := left + right
	verticalAperture := top + bottom

	var out [ChannelCount]Vector2
	for ch := 0; ch < ChannelCount; ch++ {
		t := s.model[eye][ch].apply(x, y, s.affine[eye].Inverse)
		out[ch] = Vector2{
			X: (t.X + left) / horizontalAperture,
			Y: (t.Y + top) / verticalAperture,
		}
	}
	return DistortionCoordinates{Red: out[0], Green: out[1], Blue: out[2]}
}

// ComputeInverseDistortion is typically unsupported by wrapped devices;
// the call is forwarded anyway.
func (s *HmdShim) ComputeInverseDistortion(eye Eye, channel uint32, u, v float64) (Vector2, bool) {
	return s.display.ComputeInverseDistortion(eye, channel, u, v)
}

// ReadDistortionModel reloads the full parameter set from configuration
// and rebuilds both eyes' affines and inverses. The new values are
// committed unconditionally; benign re-reads of unchanged configuration
// are tolerated. Reports whether anything differed from the held model.
func (s *HmdShim) ReadDistortionModel() bool {
	if s.display == nil || s.dc == nil || s.dc.Settings == nil {
		return false
	}

	model, forward := readDistortionSettings(s.dc.Settings, s.display.GetEyeOutputViewport)

	changed := model != s.model
	for eye := range forward {
		if forward[eye] != s.affine[eye].Forward {
			changed = true
		}
	}

	s.model = model
	for eye := range forward {
		inv, ok := forward[eye].Inverse()
		if !ok {
			s.log.Warn("affine matrix not invertible", "shim_id", s.id, "eye", eye)
			inv = Identity3()
		}
		s.affine[eye] = EyeAffine{Forward: forward[eye], Inverse: inv}
	}

	return changed
}

// ApplySettingsChanges re-reads the model and, when it changed, tells
// the host to regenerate its distortion mesh. The hidden-area meshes
// stay disabled rather than being recomputed.
func (s *HmdShim) ApplySettingsChanges() {
	if s.display == nil || s.notDirectMode {
		return
	}
	if s.ReadDistortionModel() {
		s.host.VendorSpecificEvent(s.deviceIndex, EventLensDistortionChanged, 0)
		s.log.Debug("lens distortion change signalled", "shim_id", s.id, "object_id", s.deviceIndex)
	}
}
