package lib

import (
    "context"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "golang.org/x/sync/errgroup"
)

/* The system VIA (6522) of the bbc micro, only as much of it as the os needs
 * for interrupts and the keyboard.
 *
 * http://beebwiki.mdfs.net/System_VIA
 */

const SystemVIABase uint16 = 0xfe40

/* the 16 registers repeat through 0xfe40-0xfe5f */
const viaMirrorSize = 0x20

/* register offsets */
const (
    VIARegisterORB = 0x0
    VIARegisterORA = 0x1
    VIARegisterDDRB = 0x2
    VIARegisterDDRA = 0x3
    VIARegisterT1CL = 0x4
    VIARegisterT1CH = 0x5
    VIARegisterIFR = 0xd
    VIARegisterIER = 0xe
    VIARegisterORANoHandshake = 0xf
)

/* interrupt sources, as bits in the flag and enable registers */
const (
    VIASourceKeyboard byte = 1 << 0 // CA2
    VIASourceVsync byte = 1 << 1 // CA1
    VIASourceTimer1 byte = 1 << 6

    viaMasterBit byte = 1 << 7
)

/* port B drives an addressable latch: bits 0-2 pick one of eight latch bits
 * and bit 3 is the value written to it
 */
type LatchBit int

const (
    LatchSoundWrite LatchBit = iota
    LatchSpeechRead
    LatchSpeechWrite
    LatchKeyboardAutoScan
    LatchScreenWrap0
    LatchScreenWrap1
    LatchCapsLockLED
    LatchShiftLockLED
)

type latchAction struct {
    Name string
    Bit LatchBit
    Value bool
}

/* every value of the low nibble of port B */
var latchActions = [16]latchAction{
    {"sound write enable", LatchSoundWrite, false},
    {"speech read select", LatchSpeechRead, false},
    {"speech write select", LatchSpeechWrite, false},
    {"keyboard auto scan off", LatchKeyboardAutoScan, false},
    {"screen wrap c0 low", LatchScreenWrap0, false},
    {"screen wrap c1 low", LatchScreenWrap1, false},
    {"caps lock led on", LatchCapsLockLED, false},
    {"shift lock led on", LatchShiftLockLED, false},
    {"sound write disable", LatchSoundWrite, true},
    {"speech read deselect", LatchSpeechRead, true},
    {"speech write deselect", LatchSpeechWrite, true},
    {"keyboard auto scan on", LatchKeyboardAutoScan, true},
    {"screen wrap c0 high", LatchScreenWrap0, true},
    {"screen wrap c1 high", LatchScreenWrap1, true},
    {"caps lock led off", LatchCapsLockLED, true},
    {"shift lock led off", LatchShiftLockLED, true},
}

const noKey int32 = -1

type VIA struct {
    Base uint16
    Debug uint

    line *InterruptLine

    /* held while the flags and the interrupt line change together, so a timer
     * tick and an acknowledge from the cpu cannot interleave
     */
    lock sync.Mutex

    /* flag and enable registers, without the bit 7 summary */
    flags atomic.Uint32
    enabled atomic.Uint32

    latch atomic.Uint32
    autoScan atomic.Bool
    dataDirection atomic.Uint32

    /* key number is row << 4 | column */
    pressed atomic.Int32
    probe atomic.Uint32

    writeHandle HookHandle
    readHandle HookHandle
}

func MakeVIA(base uint16, line *InterruptLine) *VIA {
    via := &VIA{
        Base: base,
        line: line,
    }
    via.Reset()
    return via
}

func (via *VIA) Reset(){
    via.flags.Store(0)
    via.enabled.Store(0)
    via.latch.Store(0)
    via.autoScan.Store(true)
    via.dataDirection.Store(0)
    via.pressed.Store(noKey)
    via.probe.Store(0)
    via.line.Release(0x7f)
}

func (via *VIA) Attach(bus *Bus){
    via.writeHandle = bus.RegisterWriteHook(via.busWrite)
    via.readHandle = bus.RegisterReadHook(via.busRead)
}

func (via *VIA) Detach(bus *Bus){
    bus.UnregisterWriteHook(via.writeHandle)
    bus.UnregisterReadHook(via.readHandle)
}

func (via *VIA) register(address uint16) (int, bool) {
    if address < via.Base || address >= via.Base + viaMirrorSize {
        return 0, false
    }
    return int(address & 0xf), true
}

/* set the flag for a source and tell the cpu, but only if the source is
 * enabled
 */
func (via *VIA) raise(source byte){
    via.lock.Lock()
    defer via.lock.Unlock()

    if byte(via.enabled.Load()) & source == 0 {
        return
    }
    via.flags.Or(uint32(source))
    via.line.Assert(source)
}

func (via *VIA) clear(sources byte){
    via.lock.Lock()
    defer via.lock.Unlock()

    sources = sources & ^viaMasterBit
    via.flags.And(^uint32(sources))
    via.line.Release(sources)
}

/* the irq output is flags & enabled, recompute it after the enable mask changes */
func (via *VIA) updateLine(){
    via.lock.Lock()
    defer via.lock.Unlock()

    flags := byte(via.flags.Load())
    enabled := byte(via.enabled.Load())
    for bit := 0; bit < 7; bit++ {
        source := byte(1 << bit)
        if flags & enabled & source != 0 {
            via.line.Assert(source)
        } else {
            via.line.Release(source)
        }
    }
}

/* a periodic source fired */
func (via *VIA) Tick(source byte){
    via.raise(source)
}

func (via *VIA) InterruptFlags() byte {
    flags := byte(via.flags.Load())
    if flags & byte(via.enabled.Load()) != 0 {
        flags |= viaMasterBit
    }
    return flags
}

func (via *VIA) InterruptEnable() byte {
    return viaMasterBit | byte(via.enabled.Load())
}

func (via *VIA) AutoScan() bool {
    return via.autoScan.Load()
}

func (via *VIA) Latch(bit LatchBit) bool {
    return via.latch.Load() & (1 << uint(bit)) != 0
}

/* the sound chip is written to while latch bit 0 is low */
func (via *VIA) SoundEnabled() bool {
    return !via.Latch(LatchSoundWrite)
}

/* host side of the keyboard. key is the matrix position, row << 4 | column */
func (via *VIA) PressKey(key byte){
    via.pressed.Store(int32(key & 0x7f))
    if via.AutoScan() {
        via.raise(VIASourceKeyboard)
    }
}

func (via *VIA) ReleaseKey(){
    via.pressed.Store(noKey)
}

func (via *VIA) pressedKey() (byte, bool) {
    key := via.pressed.Load()
    if key == noKey {
        return 0, false
    }
    return byte(key), true
}

func (via *VIA) writeLatch(value byte){
    action := latchActions[value & 0xf]
    mask := uint32(1) << uint(action.Bit)
    if action.Value {
        via.latch.Or(mask)
    } else {
        via.latch.And(^mask)
    }

    if action.Bit == LatchKeyboardAutoScan {
        via.autoScan.Store(action.Value)
    }

    if via.Debug > 0 {
        log.Printf("via: latch %v", action.Name)
    }
}

func (via *VIA) busWrite(value byte, old byte, address uint16){
    register, ok := via.register(address)
    if !ok {
        return
    }

    switch register {
        case VIARegisterORB:
            via.writeLatch(value)
        case VIARegisterORA:
            via.clear(VIASourceVsync | VIASourceKeyboard)
            via.probe.Store(uint32(value & 0x7f))
        case VIARegisterORANoHandshake:
            via.probe.Store(uint32(value & 0x7f))
        case VIARegisterDDRA:
            via.dataDirection.Store(uint32(value))
        case VIARegisterT1CH:
            via.clear(VIASourceTimer1)
        case VIARegisterIFR:
            if value & viaMasterBit == 0 {
                via.clear(value)
            }
        case VIARegisterIER:
            sources := uint32(value & ^viaMasterBit)
            if value & viaMasterBit != 0 {
                via.enabled.Or(sources)
            } else {
                via.enabled.And(^sources)
            }
            via.updateLine()
    }
}

/* with auto scan off the os probes the matrix through port A: the low nibble
 * of the value written names a column and bit 7 reads back set while the
 * pressed key sits in that column
 */
func (via *VIA) readKeyboard() byte {
    probe := byte(via.probe.Load())
    key, ok := via.pressedKey()
    if ok && key & 0xf == probe & 0xf {
        return probe | 0x80
    }
    return probe
}

/* column scan: with auto scan off, CA2 reads as set while any key in the
 * probed column is down
 */
func (via *VIA) columnActive() bool {
    if via.AutoScan() {
        return false
    }
    key, ok := via.pressedKey()
    if !ok {
        return false
    }
    return key & 0xf == byte(via.probe.Load()) & 0xf
}

func (via *VIA) busRead(address uint16) (byte, bool) {
    register, ok := via.register(address)
    if !ok {
        return 0, false
    }

    switch register {
        case VIARegisterIFR:
            flags := via.InterruptFlags()
            if via.columnActive() {
                flags |= VIASourceKeyboard
            }
            return flags, true
        case VIARegisterIER:
            return via.InterruptEnable(), true
        case VIARegisterDDRA:
            return byte(via.dataDirection.Load()), true
        case VIARegisterORA, VIARegisterORANoHandshake:
            if register == VIARegisterORA {
                via.clear(VIASourceVsync | VIASourceKeyboard)
            }
            if !via.AutoScan() {
                return via.readKeyboard(), true
            }
        case VIARegisterT1CL:
            via.clear(VIASourceTimer1)
    }

    return 0, false
}

/* fire source every period until the context is done */
func (via *VIA) RunTimer(ctx context.Context, source byte, period time.Duration) error {
    ticker := time.NewTicker(period)
    defer ticker.Stop()

    for {
        select {
            case <-ctx.Done():
                return nil
            case <-ticker.C:
                via.Tick(source)
        }
    }
}

/* the two periodic sources of the bbc: timer 1 for the os clock and the
 * vertical sync from the video circuit. each runs on its own goroutine.
 */
func (via *VIA) Run(ctx context.Context, timerPeriod time.Duration, vsyncPeriod time.Duration) error {
    group, ctx := errgroup.WithContext(ctx)
    group.Go(func() error {
        return via.RunTimer(ctx, VIASourceTimer1, timerPeriod)
    })
    group.Go(func() error {
        return via.RunTimer(ctx, VIASourceVsync, vsyncPeriod)
    })
    return group.Wait()
}
