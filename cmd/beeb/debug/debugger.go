package debug

import (
    "log"
    "sync"

    "github.com/kazzmir/beeb/lib"
)

// break when the cpu's PC is at a specific value
type Breakpoint struct {
    PC uint16
    Id uint64
}

func (breakpoint *Breakpoint) Hit(cpu *lib.CPUState) bool {
    return breakpoint.PC == cpu.PC
}

/* Watches the cpu from a pre-execution observer. A breakpoint or the step
 * limit halts the cpu before the instruction runs and then calls Stop so the
 * host can shut the rest of the machine down.
 */
type Debugger struct {
    Breakpoints []Breakpoint
    BreakpointId uint64

    /* log every instruction */
    Trace bool
    /* stop after this many instructions, 0 for no limit */
    MaxInstructions uint64

    /* called once, on the cpu goroutine, when the debugger wants the machine stopped */
    Stop func(cpu *lib.CPUState, reason string)

    stopOnce sync.Once
}

func MakeDebugger(stop func(cpu *lib.CPUState, reason string)) *Debugger {
    return &Debugger{
        BreakpointId: 1,
        Stop: stop,
    }
}

func (debugger *Debugger) AddPCBreakpoint(pc uint16) uint64 {
    id := debugger.BreakpointId
    debugger.Breakpoints = append(debugger.Breakpoints, Breakpoint{
        PC: pc,
        Id: id,
    })
    debugger.BreakpointId += 1
    return id
}

func (debugger *Debugger) RemoveBreakpoint(id uint64){
    var out []Breakpoint
    for _, breakpoint := range debugger.Breakpoints {
        if breakpoint.Id != id {
            out = append(out, breakpoint)
        }
    }
    debugger.Breakpoints = out
}

func (debugger *Debugger) stop(cpu *lib.CPUState, reason string){
    cpu.Halt()
    debugger.stopOnce.Do(func(){
        if debugger.Stop != nil {
            debugger.Stop(cpu, reason)
        }
    })
}

/* the pre-execution observer */
func (debugger *Debugger) Observe(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode){
    if debugger.Trace {
        log.Printf("[trace] %04X %v %v A:%02X X:%02X Y:%02X P:%02X SP:%02X", cpu.PC, mnemonic, mode, cpu.A, cpu.X, cpu.Y, cpu.Status, cpu.SP)
    }

    for _, breakpoint := range debugger.Breakpoints {
        if breakpoint.Hit(cpu) {
            debugger.stop(cpu, "breakpoint")
            return
        }
    }

    if debugger.MaxInstructions > 0 && cpu.Instructions >= debugger.MaxInstructions {
        debugger.stop(cpu, "instruction limit")
    }
}

func (debugger *Debugger) Install(cpu *lib.CPUState){
    cpu.AddPreObserver(debugger.Observe)
}
