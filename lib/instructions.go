package lib

/* Works out the effective address of the current instruction. The operand
 * bytes start at PC+1. For immediate mode the address of the operand byte
 * itself is returned so every read goes through the same path, and for
 * relative mode the result is the branch target.
 */
func (cpu *CPUState) resolve(mnemonic Mnemonic, mode AddressingMode) (uint16, error) {
    bus := cpu.Bus
    switch mode {
        case Immediate:
            return cpu.PC + 1, nil
        case Relative:
            offset := int8(bus.Get(cpu.PC + 1))
            next := cpu.PC + 2
            return uint16(int32(next) + int32(offset)), nil
        case Absolute:
            return bus.GetWord(cpu.PC + 1), nil
        case ZeroPage:
            return uint16(bus.Get(cpu.PC + 1)), nil
        case Indirect:
            pointer := bus.GetWord(cpu.PC + 1)
            /* the nmos 6502 never carries into the high byte of the pointer,
             * so jmp ($12ff) reads its high byte from $1200
             */
            low := uint16(bus.Get(pointer))
            high := uint16(bus.Get((pointer & 0xff00) | ((pointer + 1) & 0x00ff)))
            return (high << 8) | low, nil
        case AbsoluteX:
            return bus.GetWord(cpu.PC + 1) + uint16(cpu.X), nil
        case AbsoluteY:
            return bus.GetWord(cpu.PC + 1) + uint16(cpu.Y), nil
        case ZeroPageX:
            /* keeping the sum as a byte wraps within page zero */
            return uint16(bus.Get(cpu.PC + 1) + cpu.X), nil
        case ZeroPageY:
            return uint16(bus.Get(cpu.PC + 1) + cpu.Y), nil
        case IndexedIndirect:
            zero := bus.Get(cpu.PC + 1) + cpu.X
            return cpu.zeroPageWord(zero), nil
        case IndirectIndexed:
            zero := bus.Get(cpu.PC + 1)
            return cpu.zeroPageWord(zero) + uint16(cpu.Y), nil
    }

    return 0, cpu.addressingModeFault(mnemonic, mode)
}

/* a pointer stored in page zero, the high byte wraps to $00 after $ff */
func (cpu *CPUState) zeroPageWord(zero byte) uint16 {
    low := uint16(cpu.Bus.Get(uint16(zero)))
    high := uint16(cpu.Bus.Get(uint16(zero + 1)))
    return (high << 8) | low
}

func (cpu *CPUState) load(mnemonic Mnemonic, mode AddressingMode, address uint16) (byte, error) {
    switch mode {
        case Accumulator:
            return cpu.A, nil
        case Implied, Relative, Indirect:
            return 0, cpu.addressingModeFault(mnemonic, mode)
    }
    return cpu.Bus.Get(address), nil
}

func (cpu *CPUState) store(mnemonic Mnemonic, mode AddressingMode, address uint16, value byte) error {
    switch mode {
        case Accumulator:
            cpu.A = value
            return nil
        case Implied, Relative, Indirect, Immediate:
            return cpu.addressingModeFault(mnemonic, mode)
    }
    cpu.Bus.Set(value, address)
    return nil
}

func (cpu *CPUState) setNZ(value byte){
    cpu.SetNegativeFlag(int8(value) < 0)
    cpu.SetZeroFlag(value == 0)
}

func (cpu *CPUState) loadA(value byte){
    cpu.A = value
    cpu.setNZ(value)
}

func (cpu *CPUState) loadX(value byte){
    cpu.X = value
    cpu.setNZ(value)
}

func (cpu *CPUState) loadY(value byte){
    cpu.Y = value
    cpu.setNZ(value)
}

func (cpu *CPUState) doAdc(value byte){
    var carryBit uint16 = 0
    if cpu.GetCarryFlag() {
        carryBit = 1
    }

    sum := uint16(cpu.A) + uint16(value) + carryBit
    result := byte(sum)

    /* signed overflow: both inputs had the same sign and the result does not
     * http://www.6502.org/tutorials/vflag.html
     */
    overflow := (^(cpu.A ^ value) & (cpu.A ^ result) & 0x80) != 0

    cpu.SetCarryFlag(sum > 0xff)
    cpu.SetOverflowFlag(overflow)
    cpu.loadA(result)
}

/* a - m - borrow is a + ~m + carry, where carry is the inverted borrow */
func (cpu *CPUState) doSbc(value byte){
    cpu.doAdc(^value)
}

func (cpu *CPUState) doCompare(register byte, value byte){
    cpu.SetCarryFlag(register >= value)
    cpu.setNZ(register - value)
}

func (cpu *CPUState) doBit(value byte){
    cpu.SetZeroFlag((cpu.A & value) == 0)
    cpu.SetNegativeFlag((value & (1<<7)) == (1<<7))
    cpu.SetOverflowFlag((value & (1<<6)) == (1<<6))
}

func (cpu *CPUState) doAsl(value byte) byte {
    out := value << 1
    cpu.SetCarryFlag(value & (1<<7) == (1<<7))
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doLsr(value byte) byte {
    out := value >> 1
    cpu.SetCarryFlag(value & 1 == 1)
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doRol(value byte) byte {
    var carryBit byte
    if cpu.GetCarryFlag() {
        carryBit = 1
    }

    out := (value << 1) | carryBit
    cpu.SetCarryFlag(value & (1<<7) == (1<<7))
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doRor(value byte) byte {
    var carryBit byte
    if cpu.GetCarryFlag() {
        carryBit = 1
    }

    out := (value >> 1) | (carryBit << 7)
    cpu.SetCarryFlag(value & 1 == 1)
    cpu.setNZ(out)
    return out
}

/* read, change and write back the operand */
func (cpu *CPUState) modify(mnemonic Mnemonic, mode AddressingMode, address uint16, operation func(byte) byte) error {
    value, err := cpu.load(mnemonic, mode, address)
    if err != nil {
        return err
    }
    return cpu.store(mnemonic, mode, address, operation(value))
}

func (cpu *CPUState) branch(condition bool, target uint16) bool {
    if condition {
        cpu.PC = target
        return true
    }
    return false
}

/* Runs the body of one instruction. The returned bool is true when the
 * instruction set the pc itself, otherwise the caller steps over the operand
 * bytes.
 */
func (cpu *CPUState) Execute(mnemonic Mnemonic, mode AddressingMode, address uint16) (bool, error) {
    switch mnemonic {
        case MnemonicLDA, MnemonicLDX, MnemonicLDY,
             MnemonicADC, MnemonicSBC, MnemonicAND, MnemonicORA, MnemonicEOR,
             MnemonicCMP, MnemonicCPX, MnemonicCPY, MnemonicBIT:
            value, err := cpu.load(mnemonic, mode, address)
            if err != nil {
                return false, err
            }

            switch mnemonic {
                case MnemonicLDA: cpu.loadA(value)
                case MnemonicLDX: cpu.loadX(value)
                case MnemonicLDY: cpu.loadY(value)
                case MnemonicADC: cpu.doAdc(value)
                case MnemonicSBC: cpu.doSbc(value)
                case MnemonicAND: cpu.loadA(cpu.A & value)
                case MnemonicORA: cpu.loadA(cpu.A | value)
                case MnemonicEOR: cpu.loadA(cpu.A ^ value)
                case MnemonicCMP: cpu.doCompare(cpu.A, value)
                case MnemonicCPX: cpu.doCompare(cpu.X, value)
                case MnemonicCPY: cpu.doCompare(cpu.Y, value)
                case MnemonicBIT: cpu.doBit(value)
            }
            return false, nil

        case MnemonicSTA:
            return false, cpu.store(mnemonic, mode, address, cpu.A)
        case MnemonicSTX:
            return false, cpu.store(mnemonic, mode, address, cpu.X)
        case MnemonicSTY:
            return false, cpu.store(mnemonic, mode, address, cpu.Y)

        case MnemonicASL:
            return false, cpu.modify(mnemonic, mode, address, cpu.doAsl)
        case MnemonicLSR:
            return false, cpu.modify(mnemonic, mode, address, cpu.doLsr)
        case MnemonicROL:
            return false, cpu.modify(mnemonic, mode, address, cpu.doRol)
        case MnemonicROR:
            return false, cpu.modify(mnemonic, mode, address, cpu.doRor)
        case MnemonicINC:
            return false, cpu.modify(mnemonic, mode, address, func(value byte) byte {
                value += 1
                cpu.setNZ(value)
                return value
            })
        case MnemonicDEC:
            return false, cpu.modify(mnemonic, mode, address, func(value byte) byte {
                value -= 1
                cpu.setNZ(value)
                return value
            })

        case MnemonicINX:
            cpu.loadX(cpu.X + 1)
        case MnemonicINY:
            cpu.loadY(cpu.Y + 1)
        case MnemonicDEX:
            cpu.loadX(cpu.X - 1)
        case MnemonicDEY:
            cpu.loadY(cpu.Y - 1)

        case MnemonicTAX:
            cpu.loadX(cpu.A)
        case MnemonicTAY:
            cpu.loadY(cpu.A)
        case MnemonicTXA:
            cpu.loadA(cpu.X)
        case MnemonicTYA:
            cpu.loadA(cpu.Y)
        case MnemonicTSX:
            cpu.loadX(cpu.SP)
        case MnemonicTXS:
            /* the only transfer that leaves the flags alone */
            cpu.SP = cpu.X

        case MnemonicCLC:
            cpu.ResetFlag(FlagCarry)
        case MnemonicSEC:
            cpu.SetFlag(FlagCarry)
        case MnemonicCLI:
            cpu.ResetFlag(FlagInterruptDisable)
        case MnemonicSEI:
            cpu.SetFlag(FlagInterruptDisable)
        case MnemonicCLV:
            cpu.ResetFlag(FlagOverflow)
        case MnemonicCLD:
            cpu.ResetFlag(FlagDecimal)
        case MnemonicSED:
            /* the flag is kept but adc/sbc stay binary */
            cpu.SetFlag(FlagDecimal)

        case MnemonicPHA:
            cpu.PushStack(cpu.A)
        case MnemonicPHP:
            cpu.PushStack(cpu.Status | byte(FlagBreak | FlagReserved))
        case MnemonicPLA:
            cpu.loadA(cpu.PopStack())
        case MnemonicPLP:
            cpu.loadStatus(cpu.PopStack())

        case MnemonicBCC:
            return cpu.branch(!cpu.GetCarryFlag(), address), nil
        case MnemonicBCS:
            return cpu.branch(cpu.GetCarryFlag(), address), nil
        case MnemonicBNE:
            return cpu.branch(!cpu.GetZeroFlag(), address), nil
        case MnemonicBEQ:
            return cpu.branch(cpu.GetZeroFlag(), address), nil
        case MnemonicBPL:
            return cpu.branch(!cpu.GetNegativeFlag(), address), nil
        case MnemonicBMI:
            return cpu.branch(cpu.GetNegativeFlag(), address), nil
        case MnemonicBVC:
            return cpu.branch(!cpu.GetOverflowFlag(), address), nil
        case MnemonicBVS:
            return cpu.branch(cpu.GetOverflowFlag(), address), nil

        case MnemonicJMP:
            cpu.PC = address
            return true, nil
        case MnemonicJSR:
            /* the pushed return address points at the last byte of the jsr */
            cpu.pushWord(cpu.PC + 2)
            cpu.PC = address
            return true, nil
        case MnemonicRTS:
            cpu.PC = cpu.popWord() + 1
            return true, nil
        case MnemonicRTI:
            cpu.loadStatus(cpu.PopStack())
            cpu.PC = cpu.popWord()
            return true, nil
        case MnemonicBRK:
            cpu.BRK()
            return true, nil

        case MnemonicNOP:

        default:
            return false, cpu.addressingModeFault(mnemonic, mode)
    }

    return false, nil
}
