package main

import (
    "errors"
    "fmt"
    "io"

    "github.com/fatih/color"
    "github.com/kazzmir/beeb/lib"
)

/* print what the cpu was doing when it stopped. returns false if err is not a
 * cpu fault
 */
func reportFault(out io.Writer, err error) bool {
    red := color.New(color.FgRed, color.Bold).SprintFunc()
    yellow := color.New(color.FgYellow).SprintFunc()

    var decodeFault *lib.DecodeFault
    if errors.As(err, &decodeFault) {
        fmt.Fprintf(out, "%v unknown opcode 0x%02X at 0x%04X\n", red("fault:"), decodeFault.Opcode, decodeFault.Registers.PC)
        fmt.Fprintf(out, "  %v\n", yellow(decodeFault.Registers))
        fmt.Fprintln(out, decodeFault.MemoryDump())
        return true
    }

    var modeFault *lib.AddressingModeFault
    if errors.As(err, &modeFault) {
        fmt.Fprintf(out, "%v %v cannot use %v\n", red("fault:"), modeFault.Mnemonic, modeFault.Mode)
        fmt.Fprintf(out, "  %v\n", yellow(modeFault.Registers))
        return true
    }

    return false
}

func reportStop(out io.Writer, cpu *lib.CPUState, reason string){
    green := color.New(color.FgGreen).SprintFunc()
    fmt.Fprintf(out, "%v %v after %v instructions\n", green("stopped:"), reason, cpu.Instructions)
    fmt.Fprintf(out, "  %v\n", cpu.Registers())
}
