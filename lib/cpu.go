package lib

import (
    "context"
    "fmt"
    "log"
    "sync/atomic"
)

const NMIVector uint16 = 0xfffa
const ResetVector uint16 = 0xfffc
const IRQVector uint16 = 0xfffe

const StackBase uint16 = 0x100

/* bits of the status register */
type Flag byte

const (
    FlagCarry Flag = 1 << 0
    FlagZero Flag = 1 << 1
    FlagInterruptDisable Flag = 1 << 2
    FlagDecimal Flag = 1 << 3
    FlagBreak Flag = 1 << 4
    FlagReserved Flag = 1 << 5
    FlagOverflow Flag = 1 << 6
    FlagNegative Flag = 1 << 7
)

var allFlags = []Flag{FlagCarry, FlagZero, FlagInterruptDisable, FlagDecimal, FlagBreak, FlagReserved, FlagOverflow, FlagNegative}

/* called before and after every instruction. observers are for tooling only
 * (traces, breakpoints) and must not change cpu state.
 */
type Observer func(cpu *CPUState, mnemonic Mnemonic, mode AddressingMode)

type CPUState struct {
    A byte `json:"a"`
    X byte `json:"x"`
    Y byte `json:"y"`
    SP byte `json:"sp"`
    PC uint16 `json:"pc"`
    Status byte `json:"status"`

    /* number of instructions executed */
    Instructions uint64 `json:"instructions"`

    Bus *Bus `json:"-"`
    Decoder *Decoder `json:"-"`
    Interceptors *Interceptors `json:"-"`
    IRQ *InterruptLine `json:"-"`

    Debug uint `json:"debug,omitempty"`

    preObservers []Observer
    postObservers []Observer

    /* set by an interceptor that wants the current instruction to run again */
    stalled bool

    /* set by Halt, from any goroutine */
    halted atomic.Bool
}

func NewCPU(bus *Bus, decoder *Decoder, irq *InterruptLine) *CPUState {
    if decoder == nil {
        decoder = DefaultDecoder()
    }

    return &CPUState{
        SP: 0xfd,
        Status: byte(FlagReserved | FlagInterruptDisable),
        Bus: bus,
        Decoder: decoder,
        IRQ: irq,
    }
}

func (cpu *CPUState) Registers() Registers {
    return Registers{
        PC: cpu.PC,
        SP: cpu.SP,
        A: cpu.A,
        X: cpu.X,
        Y: cpu.Y,
        Status: cpu.Status,
    }
}

func (cpu *CPUState) String() string {
    return fmt.Sprintf("A:0x%X X:0x%X Y:0x%X SP:0x%X P:0x%X PC:0x%X Instructions:%v", cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.Status, cpu.PC, cpu.Instructions)
}

func (cpu *CPUState) AddPreObserver(observer Observer){
    cpu.preObservers = append(cpu.preObservers, observer)
}

func (cpu *CPUState) AddPostObserver(observer Observer){
    cpu.postObservers = append(cpu.postObservers, observer)
}

/* An interceptor that cannot finish yet (waiting for host input) calls this so
 * the instruction is executed again on the next step instead of the pc
 * moving on. Interrupts are still serviced in between.
 */
func (cpu *CPUState) Stall(){
    cpu.stalled = true
}

/* Stop at the next instruction boundary. If called from a pre-execution
 * observer the instruction being observed is not executed. Run returns nil
 * once the cpu is halted.
 */
func (cpu *CPUState) Halt(){
    cpu.halted.Store(true)
}

func (cpu *CPUState) Resume(){
    cpu.halted.Store(false)
}

func (cpu *CPUState) IsHalted() bool {
    return cpu.halted.Load()
}

func (cpu *CPUState) SetFlag(flag Flag){
    cpu.Status = cpu.Status | byte(flag)
}

func (cpu *CPUState) ResetFlag(flag Flag){
    cpu.Status = cpu.Status & ^byte(flag)
}

func (cpu *CPUState) TestFlag(flag Flag) bool {
    return cpu.Status & byte(flag) == byte(flag)
}

func (cpu *CPUState) setBit(flag Flag, set bool){
    if set {
        cpu.SetFlag(flag)
    } else {
        cpu.ResetFlag(flag)
    }
}

/* restore the status register from a byte pulled off the stack, one flag at a
 * time. break and reserved are not real latches so they are left alone.
 */
func (cpu *CPUState) loadStatus(value byte){
    for _, flag := range allFlags {
        if flag == FlagBreak || flag == FlagReserved {
            continue
        }
        cpu.setBit(flag, value & byte(flag) != 0)
    }
    cpu.SetFlag(FlagReserved)
}

func (cpu *CPUState) GetInterruptDisableFlag() bool {
    return cpu.TestFlag(FlagInterruptDisable)
}

func (cpu *CPUState) SetInterruptDisableFlag(set bool){
    cpu.setBit(FlagInterruptDisable, set)
}

func (cpu *CPUState) GetZeroFlag() bool {
    return cpu.TestFlag(FlagZero)
}

func (cpu *CPUState) SetZeroFlag(zero bool){
    cpu.setBit(FlagZero, zero)
}

func (cpu *CPUState) SetCarryFlag(set bool){
    cpu.setBit(FlagCarry, set)
}

func (cpu *CPUState) GetCarryFlag() bool {
    return cpu.TestFlag(FlagCarry)
}

func (cpu *CPUState) GetNegativeFlag() bool {
    return cpu.TestFlag(FlagNegative)
}

func (cpu *CPUState) SetNegativeFlag(set bool) {
    cpu.setBit(FlagNegative, set)
}

func (cpu *CPUState) GetOverflowFlag() bool {
    return cpu.TestFlag(FlagOverflow)
}

func (cpu *CPUState) SetOverflowFlag(set bool) {
    cpu.setBit(FlagOverflow, set)
}

func (cpu *CPUState) SetDecimalFlag(set bool) {
    cpu.setBit(FlagDecimal, set)
}

func (cpu *CPUState) GetDecimalFlag() bool {
    return cpu.TestFlag(FlagDecimal)
}

/* the stack lives in page 1 and wraps around silently, like the real chip.
 * stack traffic bypasses the bus hooks.
 */
func (cpu *CPUState) PushStack(value byte) {
    cpu.Bus.SetDirect(value, StackBase + uint16(cpu.SP))
    cpu.SP -= 1
}

func (cpu *CPUState) PopStack() byte {
    cpu.SP += 1
    return cpu.Bus.GetDirect(StackBase + uint16(cpu.SP))
}

func (cpu *CPUState) pushWord(value uint16){
    cpu.PushStack(byte(value >> 8))
    cpu.PushStack(byte(value & 0xff))
}

func (cpu *CPUState) popWord() uint16 {
    low := uint16(cpu.PopStack())
    high := uint16(cpu.PopStack())
    return (high << 8) | low
}

func (cpu *CPUState) decodeFault(opcode byte) error {
    base := cpu.PC - FaultWindowRadius
    window := make([]byte, FaultWindowRadius * 2)
    for i := range window {
        window[i] = cpu.Bus.GetDirect(base + uint16(i))
    }

    return &DecodeFault{
        Opcode: opcode,
        Registers: cpu.Registers(),
        WindowBase: base,
        Window: window,
    }
}

func (cpu *CPUState) addressingModeFault(mnemonic Mnemonic, mode AddressingMode) error {
    return &AddressingModeFault{
        Mnemonic: mnemonic,
        Mode: mode,
        Registers: cpu.Registers(),
    }
}

/* one fetch/decode/execute cycle, followed by the interrupt check */
func (cpu *CPUState) Step() error {
    opcode := cpu.Bus.Get(cpu.PC)
    mnemonic, mode, ok := cpu.Decoder.Decode(opcode)
    if !ok {
        return cpu.decodeFault(opcode)
    }

    var operand uint16
    if mode != Implied && mode != Accumulator {
        var err error
        operand, err = cpu.resolve(mnemonic, mode)
        if err != nil {
            return err
        }
    }

    if cpu.Debug > 0 {
        log.Printf("PC: 0x%x Execute %v %v 0x%x A:%X X:%X Y:%X P:%X SP:%X\n", cpu.PC, mnemonic, mode, operand, cpu.A, cpu.X, cpu.Y, cpu.Status, cpu.SP)
    }

    for _, observer := range cpu.preObservers {
        observer(cpu, mnemonic, mode)
    }

    if cpu.IsHalted() {
        return nil
    }

    length := uint16(OperandLength(mode)) + 1

    handled := false
    if mnemonic == MnemonicJSR && cpu.Interceptors != nil {
        cpu.stalled = false
        pc := cpu.PC
        handled = cpu.Interceptors.Dispatch(cpu, mnemonic, mode, operand)
        /* the handler stands in for the whole subroutine, so carry on after
         * the jsr unless the handler moved the pc itself or asked to retry
         */
        if handled && !cpu.stalled && cpu.PC == pc {
            cpu.PC += length
        }
        cpu.stalled = false
    }

    if !handled {
        jumped, err := cpu.Execute(mnemonic, mode, operand)
        if err != nil {
            return err
        }
        if !jumped {
            cpu.PC += length
        }
    }

    cpu.Instructions += 1

    for _, observer := range cpu.postObservers {
        observer(cpu, mnemonic, mode)
    }

    if cpu.IRQ != nil && cpu.IRQ.Pending() && !cpu.GetInterruptDisableFlag() {
        cpu.Interrupt()
    }

    return nil
}

/* how many steps to run between checks of the context */
const runBatch = 1024

/* run until a fault or until the context is cancelled. cancellation is not an
 * error, the machine was simply told to stop.
 */
func (cpu *CPUState) Run(ctx context.Context) error {
    for {
        for i := 0; i < runBatch; i++ {
            if cpu.IsHalted() {
                return nil
            }
            err := cpu.Step()
            if err != nil {
                return err
            }
        }

        select {
            case <-ctx.Done():
                return nil
            default:
        }
    }
}

func (cpu *CPUState) Reset() {
    cpu.SP = 0xfd
    cpu.SetInterruptDisableFlag(true)
    cpu.SetFlag(FlagReserved)
    cpu.PC = cpu.Bus.GetWord(ResetVector)
}

func (cpu *CPUState) BRK() {
    cpu.pushWord(cpu.PC + 2)
    cpu.PushStack(cpu.Status | byte(FlagBreak | FlagReserved))

    cpu.SetInterruptDisableFlag(true)
    cpu.PC = cpu.Bus.GetWord(IRQVector)
}

/* hardware interrupt entry. the break bit is clear in the pushed status so the
 * handler can tell this apart from brk.
 */
func (cpu *CPUState) Interrupt() {
    cpu.pushWord(cpu.PC)
    cpu.PushStack((cpu.Status | byte(FlagReserved)) & ^byte(FlagBreak))

    cpu.SetInterruptDisableFlag(true)
    cpu.PC = cpu.Bus.GetWord(IRQVector)
}

func (cpu *CPUState) NMI() {
    cpu.pushWord(cpu.PC)
    cpu.PushStack((cpu.Status | byte(FlagReserved)) & ^byte(FlagBreak))

    cpu.SetInterruptDisableFlag(true)
    cpu.PC = cpu.Bus.GetWord(NMIVector)
}
