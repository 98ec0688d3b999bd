package drivershim

// DeviceAddedFunc is the shape of the host's device-registration entry
// point held at SlotTrackedDeviceAdded.
type DeviceAddedFunc func(host ServerDriverHost, serial string, class DeviceClass, device TrackedDeviceServer) bool

// CallerPredicate decides whether a registration call is in scope for
// interception, based on the identity of the calling module.
type CallerPredicate interface {
	InScope(module string) bool
}

// AcceptAllCallers returns the baseline predicate: every registration is
// in scope.
func AcceptAllCallers() CallerPredicate { return acceptAllCallers{} }

type acceptAllCallers struct{}

func (acceptAllCallers) InScope(string) bool { return true }

// ModuleAllowList restricts interception to registrations made by the
// listed module identities.
type ModuleAllowList struct {
	Modules []string
}

func (l ModuleAllowList) InScope(module string) bool {
	for _, m := range l.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// InterceptorConfig wires a DeviceInterceptor.
type InterceptorConfig struct {
	Installer *HookInstaller
	Registry  *ShimRegistry
	Context   *DriverContext

	// Predicate gates interception by calling module; nil accepts all.
	Predicate CallerPredicate

	// CallerResolver reports the module identity of the in-flight call,
	// typically DispatchTable.CurrentCaller. Nil resolves to "".
	CallerResolver func() string

	Logger Logger
}

// DeviceInterceptor is the replacement installed over the host's
// TrackedDeviceAdded entry point. For in-scope HMD registrations it
// substitutes an HmdShim; everything else forwards untouched.
type DeviceInterceptor struct {
	installer     *HookInstaller
	registry      *ShimRegistry
	dc            *DriverContext
	predicate     CallerPredicate
	resolveCaller func() string
	log           Logger

	binding *HookBinding
}

func NewDeviceInterceptor(cfg InterceptorConfig) *DeviceInterceptor {
	pred := cfg.Predicate
	if pred == nil {
		pred = AcceptAllCallers()
	}
	return &DeviceInterceptor{
		installer:     cfg.Installer,
		registry:      cfg.Registry,
		dc:            cfg.Context,
		predicate:     pred,
		resolveCaller: cfg.CallerResolver,
		log:           ensureLogger(cfg.Logger),
	}
}

// Install binds the interceptor over target. Installing an already-bound
// target reuses the existing binding.
func (ic *DeviceInterceptor) Install(target HookTarget) error {
	b, err := ic.installer.Attach(target, DeviceAddedFunc(ic.onDeviceAdded))
	if err != nil {
		return err
	}
	ic.binding = b
	return nil
}

// Installed reports whether the redirection is live.
func (ic *DeviceInterceptor) Installed() bool { return ic.binding.Original() != nil }

func (ic *DeviceInterceptor) onDeviceAdded(host ServerDriverHost, serial string, class DeviceClass, device TrackedDeviceServer) bool {
	original, ok := ic.binding.Original().(DeviceAddedFunc)
	if !ok {
		// Hook disabled: this path only exists if the redirection was
		// installed, so the original must be present. Never forward
		// through a nil entry.
		ic.log.Error("device-added interception without captured original", "serial", serial)
		return false
	}

	forward := device
	if device != nil && class == DeviceClassHMD && ic.inScope() {
		ic.log.Info("wrapping HMD registration", "serial", serial)
		forward = NewHmdShim(device, host, ic.dc, ic.registry)
	}

	return original(host, serial, class, forward)
}

func (ic *DeviceInterceptor) inScope() bool {
	caller := ""
	if ic.resolveCaller != nil {
		caller = ic.resolveCaller()
	}
	return ic.predicate.InScope(caller)
}
