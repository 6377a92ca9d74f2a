package mos

/* Host versions of the bbc operating system calls. A program (or the
 * language rom) calls the os through the fixed entry points at the top of
 * memory. Each entry point gets an interceptor, so the jsr never reaches the
 * os rom and the work is done here instead.
 *
 * https://beebwiki.mdfs.net/OS_routines
 */

import (
    "io"
    "log"

    "github.com/kazzmir/beeb/lib"
)

const (
    OSRDCH uint16 = 0xffe0
    OSASCI uint16 = 0xffe3
    OSNEWL uint16 = 0xffe7
    OSWRCH uint16 = 0xffee
    OSWORD uint16 = 0xfff1
    OSBYTE uint16 = 0xfff4
)

var Vectors = []uint16{OSRDCH, OSASCI, OSNEWL, OSWRCH, OSWORD, OSBYTE}

/* values the os reports for the memory map of a model b */
const (
    DefaultOSHWM uint16 = 0x0e00
    DefaultHIMEM uint16 = 0x7c00
)

/* bit 7 of this zero page byte is the escape flag */
const escapeFlag uint16 = 0xff

const (
    keyReturn = 0x0d
    keyEscape = 0x1b
    keyDelete = 0x7f
    keyBackspace = 0x08
)

type Host struct {
    Output io.Writer
    /* keys typed on the host. closing the channel reads as escape */
    Input chan byte
    /* if set, osrdch waits for a key. otherwise it is left to the rom */
    WaitForKey bool

    OSHWM uint16
    HIMEM uint16

    /* osword 0 line being typed */
    line []byte
    reading bool
}

func MakeHost(output io.Writer, input chan byte) *Host {
    return &Host{
        Output: output,
        Input: input,
        WaitForKey: true,
        OSHWM: DefaultOSHWM,
        HIMEM: DefaultHIMEM,
    }
}

/* register one interceptor per os entry point */
func (host *Host) Install(interceptors *lib.Interceptors){
    interceptors.AddInterceptor(OSWRCH, host.osWRCH)
    interceptors.AddInterceptor(OSNEWL, host.osNEWL)
    interceptors.AddInterceptor(OSASCI, host.osASCI)
    interceptors.AddInterceptor(OSRDCH, host.osRDCH)
    interceptors.AddInterceptor(OSBYTE, host.osBYTE)
    interceptors.AddInterceptor(OSWORD, host.osWORD)
}

/* Without an os rom the entry points are empty memory. Put an rts at each one
 * so a call that an interceptor declines just returns.
 */
func InstallStubs(bus *lib.Bus){
    rts := []byte{0x60}
    for _, vector := range Vectors {
        bus.Copy(vector, rts)
    }
}

func (host *Host) write(data []byte){
    if host.Output == nil {
        return
    }
    _, err := host.Output.Write(data)
    if err != nil {
        log.Printf("Could not write output: %v", err)
    }
}

/* a key if one is waiting. closed is true once the host input has ended */
func (host *Host) poll() (key byte, available bool, closed bool) {
    if host.Input == nil {
        return 0, false, false
    }

    select {
        case key, ok := <-host.Input:
            if !ok {
                return 0, false, true
            }
            return key, true, false
        default:
            return 0, false, false
    }
}

func (host *Host) osWRCH(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    host.write([]byte{cpu.A})
    return true
}

func (host *Host) osNEWL(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    host.write([]byte{'\n'})
    return true
}

func (host *Host) osASCI(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    if cpu.A == keyReturn {
        return host.osNEWL(cpu, mnemonic, mode, operand)
    }
    return host.osWRCH(cpu, mnemonic, mode, operand)
}

func (host *Host) osRDCH(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    key, available, closed := host.poll()
    if available {
        cpu.A = key
        cpu.SetCarryFlag(false)
        return true
    }

    if closed {
        cpu.A = keyEscape
        cpu.SetCarryFlag(true)
        return true
    }

    if host.WaitForKey {
        cpu.Stall()
        return true
    }

    return false
}

func (host *Host) osBYTE(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    switch cpu.A {
        /* os version, 1 is os 1.20 */
        case 0x00:
            cpu.X = 1
        /* acknowledge escape */
        case 0x7e:
            flag := cpu.Bus.Get(escapeFlag)
            if flag & 0x80 != 0 {
                cpu.X = 0xff
            } else {
                cpu.X = 0
            }
            cpu.Bus.Set(flag & 0x7f, escapeFlag)
        /* inkey */
        case 0x81:
            if cpu.Y == 0xff {
                /* negative inkey scans for one key, report it as up */
                cpu.X = 0
                cpu.Y = 0
                return true
            }
            key, available, _ := host.poll()
            if available {
                cpu.X = key
                cpu.Y = 0
                cpu.SetCarryFlag(false)
            } else {
                cpu.Y = 0xff
                cpu.SetCarryFlag(true)
            }
        /* high order address of the i/o processor */
        case 0x82:
            cpu.X = 0xff
            cpu.Y = 0xff
        case 0x83:
            cpu.X = byte(host.OSHWM & 0xff)
            cpu.Y = byte(host.OSHWM >> 8)
        case 0x84:
            cpu.X = byte(host.HIMEM & 0xff)
            cpu.Y = byte(host.HIMEM >> 8)
        default:
            return false
    }

    return true
}

/* osword 0: read a line. the parameter block at YX holds the buffer address,
 * the maximum length and the lowest and highest characters accepted.
 */
func (host *Host) osWORD(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode, operand uint16) bool {
    if cpu.A != 0 {
        return false
    }

    bus := cpu.Bus
    block := (uint16(cpu.Y) << 8) | uint16(cpu.X)
    buffer := bus.GetWord(block)
    maxLength := int(bus.Get(block + 2))
    lowest := bus.Get(block + 3)
    highest := bus.Get(block + 4)

    if !host.reading {
        host.reading = true
        host.line = host.line[:0]
    }

    for {
        key, available, closed := host.poll()
        if closed {
            key = keyEscape
            available = true
        }

        if !available {
            cpu.Stall()
            return true
        }

        switch {
            case key == keyReturn:
                for i, value := range host.line {
                    bus.Set(value, buffer + uint16(i))
                }
                bus.Set(keyReturn, buffer + uint16(len(host.line)))
                host.write([]byte{'\n'})

                cpu.Y = byte(len(host.line))
                cpu.SetCarryFlag(false)
                host.reading = false
                return true
            case key == keyEscape:
                cpu.SetCarryFlag(true)
                host.reading = false
                return true
            case key == keyDelete || key == keyBackspace:
                if len(host.line) > 0 {
                    host.line = host.line[:len(host.line) - 1]
                    host.write([]byte{keyBackspace, ' ', keyBackspace})
                }
            case len(host.line) < maxLength && key >= lowest && key <= highest:
                host.line = append(host.line, key)
                host.write([]byte{key})
        }
    }
}
