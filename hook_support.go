package drivershim

import (
	"fmt"
	"sync"
)

// ExecutionFence is the coordination contract for patching live dispatch
// state: no other execution context may observe a target mid-patch.
// Readers bracket fenced calls with Enter; the installer brackets the
// patch with Pause, which holds all readers out until resume runs.
type ExecutionFence interface {
	Pause() (resume func())
	Enter() (exit func())
}

// NewWorldFence returns the default ExecutionFence, a process-wide
// reader/writer lock.
func NewWorldFence() ExecutionFence { return &worldFence{} }

type worldFence struct {
	mu sync.RWMutex
}

func (f *worldFence) Pause() func() {
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *worldFence) Enter() func() {
	f.mu.RLock()
	return f.mu.RUnlock
}

// HookTarget locates one patchable call site. Resolve and Patch are only
// called while the target's fence is paused.
type HookTarget interface {
	// Key identifies the call site; bindings are tracked per key.
	Key() string
	// Fence returns the fence guarding the call site, or nil to use the
	// installer's fence.
	Fence() ExecutionFence
	// Resolve returns the entry currently installed at the call site.
	Resolve() (any, error)
	// Patch overwrites the call site with the replacement.
	Patch(replacement any) error
}

// DispatchTable models a host interface's live dispatch state: an
// ordered set of slots holding function values, read through the fence
// on every call so installed patches become visible immediately.
type DispatchTable struct {
	name   string
	fence  ExecutionFence
	slots  []any
	caller string
}

// NewDispatchTable creates a table with the given slot count. A nil
// fence gets a private world fence.
func NewDispatchTable(name string, slots int, fence ExecutionFence) *DispatchTable {
	if fence == nil {
		fence = NewWorldFence()
	}
	return &DispatchTable{name: name, fence: fence, slots: make([]any, slots)}
}

func (t *DispatchTable) Name() string { return t.name }

// Populate assigns a slot at setup time, before any dispatch happens.
func (t *DispatchTable) Populate(slot int, fn any) error {
	return t.poke(slot, fn)
}

// Slot returns the function currently installed at slot, for invocation
// by a caller. The read goes through the fence.
func (t *DispatchTable) Slot(slot int) (any, error) {
	exit := t.fence.Enter()
	defer exit()
	return t.peek(slot)
}

// EnterFrom records the module identity of the in-flight call and
// returns a func restoring the previous caller. The host invokes driver
// calls on threads it owns, one at a time, so a plain field suffices.
func (t *DispatchTable) EnterFrom(module string) func() {
	prev := t.caller
	t.caller = module
	return func() { t.caller = prev }
}

// CurrentCaller reports the module identity recorded by EnterFrom, or
// the empty string outside any bracketed call.
func (t *DispatchTable) CurrentCaller() string { return t.caller }

// peek and poke access raw slot storage; the caller holds the fence.

func (t *DispatchTable) peek(slot int) (any, error) {
	if slot < 0 || slot >= len(t.slots) {
		return nil, fmt.Errorf("dispatch table %s: slot %d out of range", t.name, slot)
	}
	return t.slots[slot], nil
}

func (t *DispatchTable) poke(slot int, fn any) error {
	if slot < 0 || slot >= len(t.slots) {
		return fmt.Errorf("dispatch table %s: slot %d out of range", t.name, slot)
	}
	t.slots[slot] = fn
	return nil
}

// TableSlot targets a slot index in a live dispatch table.
type TableSlot struct {
	Table *DispatchTable
	Slot  int
}

func (s TableSlot) Key() string {
	if s.Table == nil {
		return fmt.Sprintf("<nil>[%d]", s.Slot)
	}
	return fmt.Sprintf("%s@%p[%d]", s.Table.name, s.Table, s.Slot)
}

func (s TableSlot) Fence() ExecutionFence {
	if s.Table == nil {
		return nil
	}
	return s.Table.fence
}

func (s TableSlot) Resolve() (any, error) {
	if s.Table == nil {
		return nil, fmt.Errorf("table slot target: nil table")
	}
	return s.Table.peek(s.Slot)
}

func (s TableSlot) Patch(replacement any) error {
	if s.Table == nil {
		return fmt.Errorf("table slot target: nil table")
	}
	return s.Table.poke(s.Slot, replacement)
}

// ModuleRegistry tracks loaded modules and their exported entry points.
// Lookups happen at call time so a patched export takes effect for all
// later calls.
type ModuleRegistry struct {
	fence   ExecutionFence
	modules map[string]map[string]any
}

func NewModuleRegistry(fence ExecutionFence) *ModuleRegistry {
	if fence == nil {
		fence = NewWorldFence()
	}
	return &ModuleRegistry{fence: fence, modules: make(map[string]map[string]any)}
}

// Register adds (or replaces) a module and its export set.
func (r *ModuleRegistry) Register(module string, exports map[string]any) {
	resume := r.fence.Pause()
	defer resume()
	table := make(map[string]any, len(exports))
	for name, fn := range exports {
		table[name] = fn
	}
	r.modules[module] = table
}

// Export looks up an exported entry point through the fence.
func (r *ModuleRegistry) Export(module, symbol string) (any, error) {
	exit := r.fence.Enter()
	defer exit()
	return r.peek(module, symbol)
}

func (r *ModuleRegistry) peek(module, symbol string) (any, error) {
	exports, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("module %q not loaded", module)
	}
	fn, ok := exports[symbol]
	if !ok {
		return nil, fmt.Errorf("module %q: symbol %q not exported", module, symbol)
	}
	return fn, nil
}

func (r *ModuleRegistry) poke(module, symbol string, fn any) error {
	exports, ok := r.modules[module]
	if !ok {
		return fmt.Errorf("module %q not loaded", module)
	}
	if _, ok := exports[symbol]; !ok {
		return fmt.Errorf("module %q: symbol %q not exported", module, symbol)
	}
	exports[symbol] = fn
	return nil
}

// ModuleExport targets an exported symbol within a named module.
type ModuleExport struct {
	Registry *ModuleRegistry
	Module   string
	Symbol   string
}

func (m ModuleExport) Key() string { return m.Module + "!" + m.Symbol }

func (m ModuleExport) Fence() ExecutionFence {
	if m.Registry == nil {
		return nil
	}
	return m.Registry.fence
}

func (m ModuleExport) Resolve() (any, error) {
	if m.Registry == nil {
		return nil, fmt.Errorf("module export target: nil registry")
	}
	return m.Registry.peek(m.Module, m.Symbol)
}

func (m ModuleExport) Patch(replacement any) error {
	if m.Registry == nil {
		return fmt.Errorf("module export target: nil registry")
	}
	return m.Registry.poke(m.Module, m.Symbol, replacement)
}

// FuncVar targets a function held in a variable the caller dispatches
// through directly.
type FuncVar struct {
	Name string
	Addr *any
}

func (f FuncVar) Key() string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("func@%p", f.Addr)
}

func (f FuncVar) Fence() ExecutionFence { return nil }

func (f FuncVar) Resolve() (any, error) {
	if f.Addr == nil {
		return nil, fmt.Errorf("func target %s: nil address", f.Key())
	}
	return *f.Addr, nil
}

func (f FuncVar) Patch(replacement any) error {
	if f.Addr == nil {
		return fmt.Errorf("func target %s: nil address", f.Key())
	}
	*f.Addr = replacement
	return nil
}

// HookBinding is one installed redirection: the target call site and the
// original entry captured for forwarding.
type HookBinding struct {
	target   HookTarget
	original any
}

// Original returns the captured entry point. Nil-safe: a nil binding
// reports a nil original, which callers treat as "hook disabled".
func (b *HookBinding) Original() any {
	if b == nil {
		return nil
	}
	return b.original
}

func (b *HookBinding) Target() HookTarget {
	if b == nil {
		return nil
	}
	return b.target
}

// HookInstaller applies atomic, idempotent redirections of call sites.
type HookInstaller struct {
	fence ExecutionFence
	log   Logger

	mu       sync.Mutex
	bindings map[string]*HookBinding
}

// NewHookInstaller creates an installer. The fence is used for targets
// that do not carry their own; nil gets a private world fence.
func NewHookInstaller(fence ExecutionFence, log Logger) *HookInstaller {
	if fence == nil {
		fence = NewWorldFence()
	}
	return &HookInstaller{
		fence:    fence,
		log:      ensureLogger(log),
		bindings: make(map[string]*HookBinding),
	}
}

// Attach redirects target to replacement and captures the original entry
// for forwarding. Attaching an already-bound target is a no-op returning
// the existing binding. The patch is bracketed by the fence so no other
// execution context observes the call site mid-patch. On failure no
// binding exists and the call site is left untouched.
func (in *HookInstaller) Attach(target HookTarget, replacement any) (*HookBinding, error) {
	if target == nil {
		return nil, fmt.Errorf("hook attach: nil target")
	}
	if replacement == nil {
		return nil, fmt.Errorf("hook attach %s: nil replacement", target.Key())
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	key := target.Key()
	if b, ok := in.bindings[key]; ok {
		// Already hooked.
		return b, nil
	}

	fence := target.Fence()
	if fence == nil {
		fence = in.fence
	}

	resume := fence.Pause()
	original, err := target.Resolve()
	if err == nil && original == nil {
		err = fmt.Errorf("hook attach %s: target not populated", key)
	}
	if err == nil {
		err = target.Patch(replacement)
	}
	resume()

	if err != nil {
		in.log.Warn("hook attach failed", "target", key, "error", err)
		return nil, err
	}

	b := &HookBinding{target: target, original: original}
	in.bindings[key] = b
	in.log.Info("hook attached", "target", key)
	return b, nil
}

// Bound reports whether target already carries a binding.
func (in *HookInstaller) Bound(target HookTarget) bool {
	if target == nil {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.bindings[target.Key()]
	return ok
}
