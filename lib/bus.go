package lib

import (
    "sync"
    "sync/atomic"
)

const BusSize = 0x10000

/* a write hook sees every value stored through Set. it can react to the write
 * (a device register was poked) but cannot change what ends up in memory
 */
type WriteHook func(value byte, old byte, address uint16)

/* a read hook can claim an address by returning (value, true) */
type ReadHook func(address uint16) (byte, bool)

type HookHandle uint64

type writeHookEntry struct {
    handle HookHandle
    hook WriteHook
}

type readHookEntry struct {
    handle HookHandle
    hook ReadHook
}

/* 64k of memory shared by the cpu and every device. Devices observe accesses
 * by registering hooks, the cpu never knows about specific device addresses.
 *
 * The hook lists are copy-on-write so that the cpu goroutine can walk them
 * without taking a lock on every memory access.
 */
type Bus struct {
    Memory [BusSize]byte

    writeHooks atomic.Pointer[[]writeHookEntry]
    readHooks atomic.Pointer[[]readHookEntry]

    /* serializes writers of the hook lists */
    lock sync.Mutex
    nextHandle HookHandle
}

func NewBus() *Bus {
    bus := &Bus{}
    bus.writeHooks.Store(&[]writeHookEntry{})
    bus.readHooks.Store(&[]readHookEntry{})
    return bus
}

func (bus *Bus) Get(address uint16) byte {
    for _, entry := range *bus.readHooks.Load() {
        value, ok := entry.hook(address)
        if ok {
            return value
        }
    }

    return bus.Memory[address]
}

func (bus *Bus) Set(value byte, address uint16) {
    old := bus.Memory[address]
    bus.Memory[address] = value

    for _, entry := range *bus.writeHooks.Load() {
        entry.hook(value, old, address)
    }
}

/* little endian, both bytes go through the hooks */
func (bus *Bus) GetWord(address uint16) uint16 {
    low := uint16(bus.Get(address))
    high := uint16(bus.Get(address + 1))
    return (high << 8) | low
}

/* hook-free access, only for the cpu's own stack traffic which no device
 * should ever see
 */
func (bus *Bus) GetDirect(address uint16) byte {
    return bus.Memory[address]
}

func (bus *Bus) SetDirect(value byte, address uint16) {
    bus.Memory[address] = value
}

/* bulk copy of an image into memory, wrapping at the top of the address space.
 * Used by the image loaders and snapshot restore while the machine is stopped,
 * so device registers that overlap a rom image are not poked by the load.
 */
func (bus *Bus) Copy(base uint16, data []byte) {
    address := base
    for _, value := range data {
        bus.Memory[address] = value
        address += 1
    }
}

/* a copy of all 64k, without going through the hooks */
func (bus *Bus) Dump() []byte {
    out := make([]byte, BusSize)
    copy(out, bus.Memory[:])
    return out
}

func (bus *Bus) RegisterWriteHook(hook WriteHook) HookHandle {
    bus.lock.Lock()
    defer bus.lock.Unlock()

    bus.nextHandle += 1
    handle := bus.nextHandle

    old := *bus.writeHooks.Load()
    hooks := make([]writeHookEntry, 0, len(old) + 1)
    hooks = append(hooks, old...)
    hooks = append(hooks, writeHookEntry{handle: handle, hook: hook})
    bus.writeHooks.Store(&hooks)

    return handle
}

func (bus *Bus) UnregisterWriteHook(handle HookHandle) {
    bus.lock.Lock()
    defer bus.lock.Unlock()

    var hooks []writeHookEntry
    for _, entry := range *bus.writeHooks.Load() {
        if entry.handle != handle {
            hooks = append(hooks, entry)
        }
    }
    bus.writeHooks.Store(&hooks)
}

func (bus *Bus) RegisterReadHook(hook ReadHook) HookHandle {
    bus.lock.Lock()
    defer bus.lock.Unlock()

    bus.nextHandle += 1
    handle := bus.nextHandle

    old := *bus.readHooks.Load()
    hooks := make([]readHookEntry, 0, len(old) + 1)
    hooks = append(hooks, old...)
    hooks = append(hooks, readHookEntry{handle: handle, hook: hook})
    bus.readHooks.Store(&hooks)

    return handle
}

func (bus *Bus) UnregisterReadHook(handle HookHandle) {
    bus.lock.Lock()
    defer bus.lock.Unlock()

    var hooks []readHookEntry
    for _, entry := range *bus.readHooks.Load() {
        if entry.handle != handle {
            hooks = append(hooks, entry)
        }
    }
    bus.readHooks.Store(&hooks)
}
