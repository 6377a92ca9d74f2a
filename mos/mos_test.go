package mos

import (
    "bytes"
    "testing"

    "github.com/kazzmir/beeb/lib"
)

/* a cpu with the host calls installed and the program at 0x2000 */
func makeTestMachine(program []byte, input chan byte) (*lib.CPUState, *Host, *bytes.Buffer) {
    bus := lib.NewBus()
    InstallStubs(bus)
    bus.Copy(0x2000, program)

    cpu := lib.NewCPU(bus, nil, nil)
    cpu.Interceptors = lib.NewInterceptors()
    cpu.PC = 0x2000

    var out bytes.Buffer
    host := MakeHost(&out, input)
    host.Install(cpu.Interceptors)

    return cpu, host, &out
}

func step(test *testing.T, cpu *lib.CPUState, count int){
    for i := 0; i < count; i++ {
        err := cpu.Step()
        if err != nil {
            test.Fatalf("step failed: %v", err)
        }
    }
}

func TestInstall(test *testing.T){
    interceptors := lib.NewInterceptors()
    host := MakeHost(&bytes.Buffer{}, nil)
    host.Install(interceptors)

    for _, vector := range Vectors {
        if !interceptors.Has(vector) {
            test.Fatalf("no handler installed for 0x%x", vector)
        }
    }

    if interceptors.Has(0x2000) {
        test.Fatalf("unexpected handler for 0x2000")
    }
}

func TestOSWRCH(test *testing.T){
    cpu, _, out := makeTestMachine([]byte{
        0xa9, 'o', 0x20, 0xee, 0xff, // lda #'o'; jsr oswrch
        0xa9, 'k', 0x20, 0xee, 0xff,
        0x20, 0xe7, 0xff, // jsr osnewl
        0xa9, 0x0d, 0x20, 0xe3, 0xff, // lda #cr; jsr osasci
        0xa9, '!', 0x20, 0xe3, 0xff,
    }, nil)

    step(test, cpu, 9)

    if out.String() != "ok\n\n!" {
        test.Fatalf("unexpected output %q", out.String())
    }

    if cpu.PC != 0x2017 || cpu.SP != 0xfd {
        test.Fatalf("calls should return inline, pc 0x%x SP 0x%x", cpu.PC, cpu.SP)
    }
}

func TestOSRDCH(test *testing.T){
    input := make(chan byte, 4)
    cpu, _, _ := makeTestMachine([]byte{0x20, 0xe0, 0xff, 0xea}, input)

    /* nothing typed yet, the call waits */
    step(test, cpu, 3)
    if cpu.PC != 0x2000 {
        test.Fatalf("osrdch should wait for a key, pc 0x%x", cpu.PC)
    }

    input <- 'q'
    cpu.SetCarryFlag(true)
    step(test, cpu, 1)

    if cpu.A != 'q' || cpu.GetCarryFlag() || cpu.PC != 0x2003 {
        test.Fatalf("osrdch returned A=0x%x carry=%v pc=0x%x", cpu.A, cpu.GetCarryFlag(), cpu.PC)
    }
}

func TestOSRDCHDeclines(test *testing.T){
    cpu, host, _ := makeTestMachine([]byte{0x20, 0xe0, 0xff}, make(chan byte))
    host.WaitForKey = false

    step(test, cpu, 1)

    /* the rom routine runs instead, here that is the rts stub */
    if cpu.PC != OSRDCH {
        test.Fatalf("expected a real jsr into the os, pc 0x%x", cpu.PC)
    }

    step(test, cpu, 1)
    if cpu.PC != 0x2003 {
        test.Fatalf("stub should return, pc 0x%x", cpu.PC)
    }
}

func TestOSRDCHClosed(test *testing.T){
    input := make(chan byte)
    close(input)
    cpu, _, _ := makeTestMachine([]byte{0x20, 0xe0, 0xff}, input)
    step(test, cpu, 1)

    if cpu.A != 0x1b || !cpu.GetCarryFlag() {
        test.Fatalf("ended input should read as escape, A=0x%x", cpu.A)
    }
}

func TestOSBYTE(test *testing.T){
    cases := []struct {
        A byte
        X byte
        Y byte
    }{
        {0x00, 0x01, 0x00},
        {0x82, 0xff, 0xff},
        {0x83, 0x00, 0x0e},
        {0x84, 0x00, 0x7c},
    }

    for _, check := range cases {
        cpu, _, _ := makeTestMachine([]byte{0xa9, check.A, 0xa0, 0x00, 0x20, 0xf4, 0xff}, nil)
        step(test, cpu, 3)

        if cpu.X != check.X || cpu.Y != check.Y {
            test.Fatalf("osbyte 0x%02x: X=0x%x Y=0x%x", check.A, cpu.X, cpu.Y)
        }
        if cpu.PC != 0x2007 {
            test.Fatalf("osbyte 0x%02x was not handled, pc 0x%x", check.A, cpu.PC)
        }
    }
}

func TestOSBYTEEscape(test *testing.T){
    cpu, _, _ := makeTestMachine([]byte{0xa9, 0x7e, 0x20, 0xf4, 0xff}, nil)
    cpu.Bus.Set(0x80, 0xff)
    step(test, cpu, 2)

    if cpu.X != 0xff || cpu.Bus.Get(0xff) != 0 {
        test.Fatalf("escape not acknowledged, X=0x%x flag=0x%x", cpu.X, cpu.Bus.Get(0xff))
    }
}

func TestOSBYTEInkey(test *testing.T){
    input := make(chan byte, 1)
    cpu, _, _ := makeTestMachine([]byte{0xa9, 0x81, 0xa0, 0x00, 0x20, 0xf4, 0xff}, input)
    step(test, cpu, 3)
    if cpu.Y != 0xff || !cpu.GetCarryFlag() {
        test.Fatalf("inkey with no key should time out, Y=0x%x", cpu.Y)
    }

    input <- 'z'
    cpu.PC = 0x2000
    step(test, cpu, 3)
    if cpu.X != 'z' || cpu.Y != 0 || cpu.GetCarryFlag() {
        test.Fatalf("inkey should return the key, X=0x%x Y=0x%x", cpu.X, cpu.Y)
    }
}

func TestOSBYTEUnknown(test *testing.T){
    cpu, _, _ := makeTestMachine([]byte{0xa9, 0x99, 0x20, 0xf4, 0xff}, nil)
    step(test, cpu, 2)
    if cpu.PC != OSBYTE {
        test.Fatalf("unknown osbyte should go to the rom, pc 0x%x", cpu.PC)
    }
}

func TestOSWORDReadLine(test *testing.T){
    input := make(chan byte, 16)
    cpu, _, out := makeTestMachine([]byte{
        0xa9, 0x00, // lda #0
        0xa2, 0x00, // ldx #<block
        0xa0, 0x30, // ldy #>block
        0x20, 0xf1, 0xff, // jsr osword
    }, input)

    /* buffer at 0x0700, 10 characters, any printable character */
    cpu.Bus.Copy(0x3000, []byte{0x00, 0x07, 10, 0x20, 0x7e})

    step(test, cpu, 3)
    step(test, cpu, 2)
    if cpu.PC != 0x2006 {
        test.Fatalf("osword should wait for input, pc 0x%x", cpu.PC)
    }

    for _, key := range []byte{'h', 'x', 0x7f, 'i', 0x0d} {
        input <- key
    }
    step(test, cpu, 1)

    if cpu.PC != 0x2009 {
        test.Fatalf("osword should finish after return, pc 0x%x", cpu.PC)
    }

    if cpu.Y != 2 || cpu.GetCarryFlag() {
        test.Fatalf("expected length 2 and carry clear, Y=%v", cpu.Y)
    }

    if cpu.Bus.Get(0x700) != 'h' || cpu.Bus.Get(0x701) != 'i' || cpu.Bus.Get(0x702) != 0x0d {
        test.Fatalf("line not stored in the buffer")
    }

    if out.String() != "hx\b \bi\n" {
        test.Fatalf("unexpected echo %q", out.String())
    }
}

func TestInstallStubs(test *testing.T){
    bus := lib.NewBus()
    InstallStubs(bus)
    for _, vector := range Vectors {
        if bus.Get(vector) != 0x60 {
            test.Fatalf("no rts at 0x%x", vector)
        }
    }
}
