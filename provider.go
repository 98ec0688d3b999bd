package drivershim

import (
	"fmt"
	"sync"
)

// ShimProvider is the lifecycle component the host drives. Init installs
// the device-registration hook exactly once; RunFrame redistributes
// settings-change notifications to every live shim.
type ShimProvider struct {
	dc          *DriverContext
	installer   *HookInstaller
	interceptor *DeviceInterceptor
	registry    *ShimRegistry
	predicate   CallerPredicate
	fence       ExecutionFence
	log         Logger
	clock       Clock

	installed bool
}

// ProviderOption customizes a ShimProvider before Init.
type ProviderOption func(*ShimProvider)

// WithCallerPredicate restricts interception to registrations matching
// the predicate. The default accepts all callers.
func WithCallerPredicate(p CallerPredicate) ProviderOption {
	return func(sp *ShimProvider) { sp.predicate = p }
}

// WithExecutionFence overrides the fence used when patching targets that
// do not carry their own.
func WithExecutionFence(f ExecutionFence) ProviderOption {
	return func(sp *ShimProvider) { sp.fence = f }
}

func WithLogger(l Logger) ProviderOption {
	return func(sp *ShimProvider) { sp.log = l }
}

func NewShimProvider(opts ...ProviderOption) *ShimProvider {
	p := &ShimProvider{
		registry:  NewShimRegistry(),
		predicate: AcceptAllCallers(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry exposes the live-shim registry, mainly for embedding hosts
// and tests.
func (p *ShimProvider) Registry() *ShimRegistry { return p.registry }

// Init installs the TrackedDeviceAdded hook. The installation happens at
// most once across repeated Init calls; a failed installation is
// reported as a benign device-not-found error and never panics.
func (p *ShimProvider) Init(dc *DriverContext) error {
	if dc == nil {
		return fmt.Errorf("shim provider init: nil driver context: %w", ErrDeviceNotFound)
	}
	p.dc = dc
	if p.log == nil {
		if dc.Log != nil {
			p.log = dc.Log
		} else {
			p.log = NewStdLogger()
		}
	}
	if p.clock == nil {
		if dc.Clock != nil {
			p.clock = dc.Clock
		} else {
			p.clock = NewSystemClock()
		}
	}

	if p.installed {
		return nil
	}

	table, err := p.lookupHostTable(dc)
	if err != nil {
		p.log.Warn("device registration hook unavailable", "error", err)
		return fmt.Errorf("installing device hook: %w", ErrDeviceNotFound)
	}

	p.installer = NewHookInstaller(p.fence, p.log)
	p.interceptor = NewDeviceInterceptor(InterceptorConfig{
		Installer:      p.installer,
		Registry:       p.registry,
		Context:        dc,
		Predicate:      p.predicate,
		CallerResolver: table.CurrentCaller,
		Logger:         p.log,
	})

	target := TableSlot{Table: table, Slot: SlotTrackedDeviceAdded}
	if err := p.interceptor.Install(target); err != nil {
		p.log.Warn("device hook install failed", "error", err)
		return fmt.Errorf("installing device hook: %w", ErrDeviceNotFound)
	}

	p.installed = true
	p.log.Info("device registration hook installed", "interface", ServerDriverHostVersion)
	return nil
}

func (p *ShimProvider) lookupHostTable(dc *DriverContext) (*DispatchTable, error) {
	if dc.Interfaces == nil {
		return nil, fmt.Errorf("no interface lookup in driver context")
	}
	raw, err := dc.Interfaces.GetGenericInterface(ServerDriverHostVersion)
	if err != nil {
		return nil, err
	}
	table, ok := raw.(*DispatchTable)
	if !ok {
		return nil, fmt.Errorf("interface %s is not a dispatch table", ServerDriverHostVersion)
	}
	return table, nil
}

// Cleanup is a no-op: an installed hook stays active until process exit.
func (p *ShimProvider) Cleanup() {}

func (p *ShimProvider) GetInterfaceVersions() []string { return InterfaceVersions }

// RunFrame drains the host event queue, rebroadcasting every observed
// settings change to the live shims.
func (p *ShimProvider) RunFrame() {
	if p.dc == nil || p.dc.Host == nil {
		return
	}
	for {
		ev, ok := p.dc.Host.PollNextEvent()
		if !ok {
			return
		}
		switch ev.Type {
		case EventDriverSettingsChanged:
			p.registry.ApplySettingsChanges()
		}
	}
}

// The shimmed device is always considered active; standby is never
// blocked or acted on.

func (p *ShimProvider) ShouldBlockStandbyMode() bool { return false }

func (p *ShimProvider) EnterStandby() {}

func (p *ShimProvider) LeaveStandby() {}

var (
	factoryMu       sync.Mutex
	factoryProvider *ShimProvider
)

// DriverFactory is the host entry point: it returns the singleton
// provider for the provider interface version and a typed error for any
// other name.
func DriverFactory(interfaceName string) (any, error) {
	if interfaceName == ServerProviderVersion {
		factoryMu.Lock()
		defer factoryMu.Unlock()
		if factoryProvider == nil {
			factoryProvider = NewShimProvider()
		}
		return factoryProvider, nil
	}
	return nil, fmt.Errorf("driver factory: %q: %w", interfaceName, ErrInterfaceNotFound)
}
