package drivershim

import (
	"fmt"
	"sync"
)

// Shared fakes for the host surfaces the shim touches.

type fakeDevice struct {
	components  map[string]any
	lookups     map[string]int
	activateErr error
	activations []uint32
	deactivated int
	standbys    int
	pose        Pose
	debugReply  string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		components: make(map[string]any),
		lookups:    make(map[string]int),
	}
}

func (d *fakeDevice) Activate(objectID uint32) error {
	d.activations = append(d.activations, objectID)
	return d.activateErr
}

func (d *fakeDevice) Deactivate()   { d.deactivated++ }
func (d *fakeDevice) EnterStandby() { d.standbys++ }

func (d *fakeDevice) GetComponent(nameAndVersion string) any {
	d.lookups[nameAndVersion]++
	return d.components[nameAndVersion]
}

func (d *fakeDevice) GetPose() Pose { return d.pose }

func (d *fakeDevice) DebugRequest(string) string { return d.debugReply }

type fakeDisplay struct {
	viewports   [EyeCount]Viewport
	projections [EyeCount]Projection
	bounds      WindowBounds
	onDesktop   bool
	realDisplay bool
	renderW     uint32
	renderH     uint32

	distortion      DistortionCoordinates
	distortionCalls int

	inverse   Vector2
	inverseOK bool
}

// newFakeDisplay returns a display with square 1000x1000 eye viewports
// and unit-tangent frustums, the geometry the math tests assume.
func newFakeDisplay() *fakeDisplay {
	d := &fakeDisplay{renderW: 2000, renderH: 1000}
	for eye := range d.viewports {
		d.viewports[eye] = Viewport{X: uint32(eye) * 1000, Y: 0, Width: 1000, Height: 1000}
		d.projections[eye] = Projection{Left: -1, Right: 1, Top: -1, Bottom: 1}
	}
	return d
}

func (d *fakeDisplay) GetWindowBounds() WindowBounds { return d.bounds }
func (d *fakeDisplay) IsDisplayOnDesktop() bool      { return d.onDesktop }
func (d *fakeDisplay) IsDisplayRealDisplay() bool    { return d.realDisplay }

func (d *fakeDisplay) GetRecommendedRenderTargetSize() (uint32, uint32) {
	return d.renderW, d.renderH
}

func (d *fakeDisplay) GetEyeOutputViewport(eye Eye) Viewport { return d.viewports[eye] }
func (d *fakeDisplay) GetProjectionRaw(eye Eye) Projection   { return d.projections[eye] }

func (d *fakeDisplay) ComputeDistortion(Eye, float64, float64) DistortionCoordinates {
	d.distortionCalls++
	return d.distortion
}

func (d *fakeDisplay) ComputeInverseDistortion(Eye, uint32, float64, float64) (Vector2, bool) {
	return d.inverse, d.inverseOK
}

type addedRecord struct {
	serial string
	class  DeviceClass
	device TrackedDeviceServer
}

type vendorRecord struct {
	index     uint32
	eventType EventType
	age       float64
}

type fakeHost struct {
	mu        sync.Mutex
	added     []addedRecord
	addResult bool
	vendor    []vendorRecord
	events    []Event
}

func (h *fakeHost) TrackedDeviceAdded(serial string, class DeviceClass, device TrackedDeviceServer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, addedRecord{serial: serial, class: class, device: device})
	return h.addResult
}

func (h *fakeHost) VendorSpecificEvent(deviceIndex uint32, eventType EventType, ageSeconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vendor = append(h.vendor, vendorRecord{index: deviceIndex, eventType: eventType, age: ageSeconds})
}

func (h *fakeHost) PollNextEvent() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return Event{}, false
	}
	ev := h.events[0]
	h.events = h.events[1:]
	return ev, true
}

func (h *fakeHost) PostEvent(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *fakeHost) pendingEvents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func (h *fakeHost) vendorEvents() []vendorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]vendorRecord(nil), h.vendor...)
}

type hiddenAreaRecord struct {
	eye      Eye
	kind     HiddenAreaMeshKind
	vertices []Vector2
}

type fakeProps struct {
	strings map[uint32]map[Property]string
	hidden  []hiddenAreaRecord
	err     error
}

func newFakeProps() *fakeProps {
	return &fakeProps{strings: make(map[uint32]map[Property]string)}
}

func (p *fakeProps) SetString(deviceIndex uint32, prop Property, value string) error {
	if p.err != nil {
		return p.err
	}
	values, ok := p.strings[deviceIndex]
	if !ok {
		values = make(map[Property]string)
		p.strings[deviceIndex] = values
	}
	values[prop] = value
	return nil
}

func (p *fakeProps) SetHiddenArea(eye Eye, kind HiddenAreaMeshKind, vertices []Vector2) error {
	if p.err != nil {
		return p.err
	}
	p.hidden = append(p.hidden, hiddenAreaRecord{eye: eye, kind: kind, vertices: vertices})
	return nil
}

type fakeLookup struct {
	interfaces map[string]any
}

func (l *fakeLookup) GetGenericInterface(nameAndVersion string) (any, error) {
	if v, ok := l.interfaces[nameAndVersion]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no interface %q", nameAndVersion)
}

// newHostTable builds a dispatch table with the host's registration
// entry point populated, the way an embedding host wires itself up.
func newHostTable(host *fakeHost) *DispatchTable {
	t := NewDispatchTable(ServerDriverHostVersion, 4, nil)
	_ = t.Populate(SlotTrackedDeviceAdded, DeviceAddedFunc(
		func(h ServerDriverHost, serial string, class DeviceClass, device TrackedDeviceServer) bool {
			return h.TrackedDeviceAdded(serial, class, device)
		}))
	return t
}

// callDeviceAdded dispatches through the table slot like a registering
// driver would.
func callDeviceAdded(t *DispatchTable, host ServerDriverHost, serial string, class DeviceClass, device TrackedDeviceServer) bool {
	raw, err := t.Slot(SlotTrackedDeviceAdded)
	if err != nil {
		panic(err)
	}
	return raw.(DeviceAddedFunc)(host, serial, class, device)
}

// passthroughSettings fills the distortion section with values that make
// the override an identity mapping on a square viewport: centers at
// mid-viewport, zero radial coefficients, half-dimension focal lengths.
func passthroughSettings() *MapSettings {
	s := NewMapSettings()
	for eye := 0; eye < EyeCount; eye++ {
		prefix := eyePrefix[eye]
		for ch := 0; ch < ChannelCount; ch++ {
			base := prefix + "_" + channelName[ch]
			s.SetFloat(SettingsSection, base+"_cod_x", 0.5)
			s.SetFloat(SettingsSection, base+"_cod_y", 0.5)
		}
		s.SetFloat(SettingsSection, prefix+"_focal_length_x", 0.5)
		s.SetFloat(SettingsSection, prefix+"_focal_length_y", 0.5)
	}
	return s
}

func newTestContext(host *fakeHost, props *fakeProps, settings Settings) *DriverContext {
	return &DriverContext{
		Host:       host,
		Properties: props,
		Settings:   settings,
		Log:        NewNopLogger(),
	}
}
