package lib

import (
    "bytes"
    "fmt"
)

/* how many bytes of memory to capture on either side of the faulting pc */
const FaultWindowRadius = 16

type Registers struct {
    PC uint16
    SP byte
    A byte
    X byte
    Y byte
    Status byte
}

func (registers Registers) String() string {
    return fmt.Sprintf("PC:0x%04X SP:0x%02X A:0x%02X X:0x%02X Y:0x%02X P:0x%02X", registers.PC, registers.SP, registers.A, registers.X, registers.Y, registers.Status)
}

/* the cpu hit a byte that is not in the opcode table. execution stops. */
type DecodeFault struct {
    Opcode byte
    Registers Registers
    WindowBase uint16
    Window []byte
}

func (fault *DecodeFault) Error() string {
    return fmt.Sprintf("unknown opcode 0x%02x at 0x%04x: %v", fault.Opcode, fault.Registers.PC, fault.Registers)
}

/* hex dump of the captured memory, 16 bytes per line */
func (fault *DecodeFault) MemoryDump() string {
    var out bytes.Buffer
    for i, value := range fault.Window {
        address := fault.WindowBase + uint16(i)
        if i % 16 == 0 {
            if i > 0 {
                out.WriteString("\n")
            }
            out.WriteString(fmt.Sprintf("%04X:", address))
        }
        out.WriteString(fmt.Sprintf(" %02X", value))
    }
    return out.String()
}

/* an instruction asked for an operand its addressing mode does not have, which
 * means the instruction table and the executor disagree
 */
type AddressingModeFault struct {
    Mnemonic Mnemonic
    Mode AddressingMode
    Registers Registers
}

func (fault *AddressingModeFault) Error() string {
    return fmt.Sprintf("addressing mode %v has no operand for %v: %v", fault.Mode, fault.Mnemonic, fault.Registers)
}
