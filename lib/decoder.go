package lib

import (
    "fmt"
    "sync"
)

/* opcode references
 * https://www.masswerk.at/6502/6502_instruction_set.html
 * http://www.6502.org/tutorials/6502opcodes.html
 */

type Mnemonic int

const (
    MnemonicADC Mnemonic = iota
    MnemonicAND
    MnemonicASL
    MnemonicBCC
    MnemonicBCS
    MnemonicBEQ
    MnemonicBIT
    MnemonicBMI
    MnemonicBNE
    MnemonicBPL
    MnemonicBRK
    MnemonicBVC
    MnemonicBVS
    MnemonicCLC
    MnemonicCLD
    MnemonicCLI
    MnemonicCLV
    MnemonicCMP
    MnemonicCPX
    MnemonicCPY
    MnemonicDEC
    MnemonicDEX
    MnemonicDEY
    MnemonicEOR
    MnemonicINC
    MnemonicINX
    MnemonicINY
    MnemonicJMP
    MnemonicJSR
    MnemonicLDA
    MnemonicLDX
    MnemonicLDY
    MnemonicLSR
    MnemonicNOP
    MnemonicORA
    MnemonicPHA
    MnemonicPHP
    MnemonicPLA
    MnemonicPLP
    MnemonicROL
    MnemonicROR
    MnemonicRTI
    MnemonicRTS
    MnemonicSBC
    MnemonicSEC
    MnemonicSED
    MnemonicSEI
    MnemonicSTA
    MnemonicSTX
    MnemonicSTY
    MnemonicTAX
    MnemonicTAY
    MnemonicTSX
    MnemonicTXA
    MnemonicTXS
    MnemonicTYA

    mnemonicCount
)

var mnemonicNames = [mnemonicCount]string{
    "adc", "and", "asl", "bcc", "bcs", "beq", "bit", "bmi", "bne", "bpl",
    "brk", "bvc", "bvs", "clc", "cld", "cli", "clv", "cmp", "cpx", "cpy",
    "dec", "dex", "dey", "eor", "inc", "inx", "iny", "jmp", "jsr", "lda",
    "ldx", "ldy", "lsr", "nop", "ora", "pha", "php", "pla", "plp", "rol",
    "ror", "rti", "rts", "sbc", "sec", "sed", "sei", "sta", "stx", "sty",
    "tax", "tay", "tsx", "txa", "txs", "tya",
}

func (mnemonic Mnemonic) String() string {
    if mnemonic < 0 || mnemonic >= mnemonicCount {
        return fmt.Sprintf("mnemonic(%d)", int(mnemonic))
    }
    return mnemonicNames[mnemonic]
}

/* https://www.masswerk.at/6502/6502_instruction_set.html
 * A = accumulator
 * abs = absolute
 * # = immediate
 * impl = implied
 * ind = indirect
 * rel = relative
 * zpg = zeropage
 */
type AddressingMode int

const (
    Implied AddressingMode = iota
    Accumulator
    Immediate
    Relative
    Absolute
    ZeroPage
    Indirect // only jmp
    AbsoluteX
    AbsoluteY
    ZeroPageX
    ZeroPageY
    IndexedIndirect // (zpg,X)
    IndirectIndexed // (zpg),Y

    addressingModeCount
)

var addressingModeNames = [addressingModeCount]string{
    "impl", "A", "#", "rel", "abs", "zpg", "ind", "abs,X", "abs,Y", "zpg,X", "zpg,Y", "(zpg,X)", "(zpg),Y",
}

func (mode AddressingMode) String() string {
    if mode < 0 || mode >= addressingModeCount {
        return fmt.Sprintf("mode(%d)", int(mode))
    }
    return addressingModeNames[mode]
}

/* number of operand bytes that follow the opcode */
var operandLengths = [addressingModeCount]int{
    Implied: 0,
    Accumulator: 0,
    Immediate: 1,
    Relative: 1,
    Absolute: 2,
    ZeroPage: 1,
    Indirect: 2,
    AbsoluteX: 2,
    AbsoluteY: 2,
    ZeroPageX: 1,
    ZeroPageY: 1,
    IndexedIndirect: 1,
    IndirectIndexed: 1,
}

func OperandLength(mode AddressingMode) int {
    return operandLengths[mode]
}

type OpcodeRow struct {
    Opcode byte
    Mnemonic Mnemonic
    Mode AddressingMode
}

/* the documented 6502 instruction set. undocumented opcodes are left out and
 * decode as invalid.
 */
var OpcodeSpecification = []OpcodeRow{
    {0x69, MnemonicADC, Immediate}, {0x65, MnemonicADC, ZeroPage}, {0x75, MnemonicADC, ZeroPageX},
    {0x6d, MnemonicADC, Absolute}, {0x7d, MnemonicADC, AbsoluteX}, {0x79, MnemonicADC, AbsoluteY},
    {0x61, MnemonicADC, IndexedIndirect}, {0x71, MnemonicADC, IndirectIndexed},

    {0x29, MnemonicAND, Immediate}, {0x25, MnemonicAND, ZeroPage}, {0x35, MnemonicAND, ZeroPageX},
    {0x2d, MnemonicAND, Absolute}, {0x3d, MnemonicAND, AbsoluteX}, {0x39, MnemonicAND, AbsoluteY},
    {0x21, MnemonicAND, IndexedIndirect}, {0x31, MnemonicAND, IndirectIndexed},

    {0x0a, MnemonicASL, Accumulator}, {0x06, MnemonicASL, ZeroPage}, {0x16, MnemonicASL, ZeroPageX},
    {0x0e, MnemonicASL, Absolute}, {0x1e, MnemonicASL, AbsoluteX},

    {0x90, MnemonicBCC, Relative}, {0xb0, MnemonicBCS, Relative},
    {0xf0, MnemonicBEQ, Relative}, {0x30, MnemonicBMI, Relative},
    {0xd0, MnemonicBNE, Relative}, {0x10, MnemonicBPL, Relative},
    {0x50, MnemonicBVC, Relative}, {0x70, MnemonicBVS, Relative},

    {0x24, MnemonicBIT, ZeroPage}, {0x2c, MnemonicBIT, Absolute},

    {0x00, MnemonicBRK, Implied},

    {0x18, MnemonicCLC, Implied}, {0xd8, MnemonicCLD, Implied},
    {0x58, MnemonicCLI, Implied}, {0xb8, MnemonicCLV, Implied},

    {0xc9, MnemonicCMP, Immediate}, {0xc5, MnemonicCMP, ZeroPage}, {0xd5, MnemonicCMP, ZeroPageX},
    {0xcd, MnemonicCMP, Absolute}, {0xdd, MnemonicCMP, AbsoluteX}, {0xd9, MnemonicCMP, AbsoluteY},
    {0xc1, MnemonicCMP, IndexedIndirect}, {0xd1, MnemonicCMP, IndirectIndexed},

    {0xe0, MnemonicCPX, Immediate}, {0xe4, MnemonicCPX, ZeroPage}, {0xec, MnemonicCPX, Absolute},
    {0xc0, MnemonicCPY, Immediate}, {0xc4, MnemonicCPY, ZeroPage}, {0xcc, MnemonicCPY, Absolute},

    {0xc6, MnemonicDEC, ZeroPage}, {0xd6, MnemonicDEC, ZeroPageX},
    {0xce, MnemonicDEC, Absolute}, {0xde, MnemonicDEC, AbsoluteX},
    {0xca, MnemonicDEX, Implied}, {0x88, MnemonicDEY, Implied},

    {0x49, MnemonicEOR, Immediate}, {0x45, MnemonicEOR, ZeroPage}, {0x55, MnemonicEOR, ZeroPageX},
    {0x4d, MnemonicEOR, Absolute}, {0x5d, MnemonicEOR, AbsoluteX}, {0x59, MnemonicEOR, AbsoluteY},
    {0x41, MnemonicEOR, IndexedIndirect}, {0x51, MnemonicEOR, IndirectIndexed},

    {0xe6, MnemonicINC, ZeroPage}, {0xf6, MnemonicINC, ZeroPageX},
    {0xee, MnemonicINC, Absolute}, {0xfe, MnemonicINC, AbsoluteX},
    {0xe8, MnemonicINX, Implied}, {0xc8, MnemonicINY, Implied},

    {0x4c, MnemonicJMP, Absolute}, {0x6c, MnemonicJMP, Indirect},
    {0x20, MnemonicJSR, Absolute},

    {0xa9, MnemonicLDA, Immediate}, {0xa5, MnemonicLDA, ZeroPage}, {0xb5, MnemonicLDA, ZeroPageX},
    {0xad, MnemonicLDA, Absolute}, {0xbd, MnemonicLDA, AbsoluteX}, {0xb9, MnemonicLDA, AbsoluteY},
    {0xa1, MnemonicLDA, IndexedIndirect}, {0xb1, MnemonicLDA, IndirectIndexed},

    {0xa2, MnemonicLDX, Immediate}, {0xa6, MnemonicLDX, ZeroPage}, {0xb6, MnemonicLDX, ZeroPageY},
    {0xae, MnemonicLDX, Absolute}, {0xbe, MnemonicLDX, AbsoluteY},

    {0xa0, MnemonicLDY, Immediate}, {0xa4, MnemonicLDY, ZeroPage}, {0xb4, MnemonicLDY, ZeroPageX},
    {0xac, MnemonicLDY, Absolute}, {0xbc, MnemonicLDY, AbsoluteX},

    {0x4a, MnemonicLSR, Accumulator}, {0x46, MnemonicLSR, ZeroPage}, {0x56, MnemonicLSR, ZeroPageX},
    {0x4e, MnemonicLSR, Absolute}, {0x5e, MnemonicLSR, AbsoluteX},

    {0xea, MnemonicNOP, Implied},

    {0x09, MnemonicORA, Immediate}, {0x05, MnemonicORA, ZeroPage}, {0x15, MnemonicORA, ZeroPageX},
    {0x0d, MnemonicORA, Absolute}, {0x1d, MnemonicORA, AbsoluteX}, {0x19, MnemonicORA, AbsoluteY},
    {0x01, MnemonicORA, IndexedIndirect}, {0x11, MnemonicORA, IndirectIndexed},

    {0x48, MnemonicPHA, Implied}, {0x08, MnemonicPHP, Implied},
    {0x68, MnemonicPLA, Implied}, {0x28, MnemonicPLP, Implied},

    {0x2a, MnemonicROL, Accumulator}, {0x26, MnemonicROL, ZeroPage}, {0x36, MnemonicROL, ZeroPageX},
    {0x2e, MnemonicROL, Absolute}, {0x3e, MnemonicROL, AbsoluteX},

    {0x6a, MnemonicROR, Accumulator}, {0x66, MnemonicROR, ZeroPage}, {0x76, MnemonicROR, ZeroPageX},
    {0x6e, MnemonicROR, Absolute}, {0x7e, MnemonicROR, AbsoluteX},

    {0x40, MnemonicRTI, Implied}, {0x60, MnemonicRTS, Implied},

    {0xe9, MnemonicSBC, Immediate}, {0xe5, MnemonicSBC, ZeroPage}, {0xf5, MnemonicSBC, ZeroPageX},
    {0xed, MnemonicSBC, Absolute}, {0xfd, MnemonicSBC, AbsoluteX}, {0xf9, MnemonicSBC, AbsoluteY},
    {0xe1, MnemonicSBC, IndexedIndirect}, {0xf1, MnemonicSBC, IndirectIndexed},

    {0x38, MnemonicSEC, Implied}, {0xf8, MnemonicSED, Implied}, {0x78, MnemonicSEI, Implied},

    {0x85, MnemonicSTA, ZeroPage}, {0x95, MnemonicSTA, ZeroPageX},
    {0x8d, MnemonicSTA, Absolute}, {0x9d, MnemonicSTA, AbsoluteX}, {0x99, MnemonicSTA, AbsoluteY},
    {0x81, MnemonicSTA, IndexedIndirect}, {0x91, MnemonicSTA, IndirectIndexed},

    {0x86, MnemonicSTX, ZeroPage}, {0x96, MnemonicSTX, ZeroPageY}, {0x8e, MnemonicSTX, Absolute},
    {0x84, MnemonicSTY, ZeroPage}, {0x94, MnemonicSTY, ZeroPageX}, {0x8c, MnemonicSTY, Absolute},

    {0xaa, MnemonicTAX, Implied}, {0xa8, MnemonicTAY, Implied}, {0xba, MnemonicTSX, Implied},
    {0x8a, MnemonicTXA, Implied}, {0x9a, MnemonicTXS, Implied}, {0x98, MnemonicTYA, Implied},
}

type decodeEntry struct {
    valid bool
    mnemonic Mnemonic
    mode AddressingMode
}

type Decoder struct {
    table [256]decodeEntry
}

/* builds the opcode table. a byte that shows up twice in the rows is a typo in
 * the table, so this panics rather than returning an error.
 */
func MakeDecoder(rows []OpcodeRow) *Decoder {
    var decoder Decoder
    for _, row := range rows {
        entry := &decoder.table[row.Opcode]
        if entry.valid {
            panic(fmt.Sprintf("internal error: opcode 0x%02x mapped twice: %v %v and %v %v", row.Opcode, entry.mnemonic, entry.mode, row.Mnemonic, row.Mode))
        }
        if row.Mode < 0 || row.Mode >= addressingModeCount {
            panic(fmt.Sprintf("internal error: opcode 0x%02x has unknown addressing mode %v", row.Opcode, int(row.Mode)))
        }
        *entry = decodeEntry{
            valid: true,
            mnemonic: row.Mnemonic,
            mode: row.Mode,
        }
    }

    return &decoder
}

var defaultDecoder *Decoder
var defaultDecoderOnce sync.Once

func DefaultDecoder() *Decoder {
    defaultDecoderOnce.Do(func(){
        defaultDecoder = MakeDecoder(OpcodeSpecification)
    })
    return defaultDecoder
}

func (decoder *Decoder) Decode(opcode byte) (Mnemonic, AddressingMode, bool) {
    entry := decoder.table[opcode]
    return entry.mnemonic, entry.mode, entry.valid
}

func (decoder *Decoder) IsValid(opcode byte) bool {
    return decoder.table[opcode].valid
}
