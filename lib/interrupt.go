package lib

import (
    "sync/atomic"
)

/* The irq wire between a device and the cpu. Each bit is one interrupt source.
 * Devices assert and release bits from any goroutine, the cpu only looks at
 * the line between instructions.
 */
type InterruptLine struct {
    sources atomic.Uint32
}

func (line *InterruptLine) Assert(source byte) {
    line.sources.Or(uint32(source))
}

func (line *InterruptLine) Release(source byte) {
    line.sources.And(^uint32(source))
}

func (line *InterruptLine) Pending() bool {
    return line.sources.Load() != 0
}

func (line *InterruptLine) Sources() byte {
    return byte(line.sources.Load())
}
