package lib

import (
    "bytes"
    "testing"
)

func TestSnapshot(test *testing.T){
    bus := NewBus()
    cpu := NewCPU(bus, nil, nil)
    cpu.PC = 0x1234
    cpu.SP = 0xf0
    cpu.A = 1
    cpu.X = 2
    cpu.Y = 3
    cpu.Status = 0xa5
    bus.Set(0x99, 0x4000)
    bus.Set(0x88, 0xffff)

    var out bytes.Buffer
    err := SaveCore(&out, cpu, bus)
    if err != nil {
        test.Fatalf("could not save: %v", err)
    }

    if out.Len() != 7 + BusSize {
        test.Fatalf("core should be the registers and 64k, was %v bytes", out.Len())
    }

    if out.Bytes()[0] != 0x34 || out.Bytes()[1] != 0x12 {
        test.Fatalf("pc should be stored little endian")
    }

    bus2 := NewBus()
    cpu2 := NewCPU(bus2, nil, nil)
    err = LoadCore(bytes.NewReader(out.Bytes()), cpu2, bus2)
    if err != nil {
        test.Fatalf("could not load: %v", err)
    }

    if cpu2.Registers() != cpu.Registers() {
        test.Fatalf("registers %v are not %v", cpu2.Registers(), cpu.Registers())
    }

    if bus2.Get(0x4000) != 0x99 || bus2.Get(0xffff) != 0x88 {
        test.Fatalf("memory not restored")
    }
}

func TestSnapshotShort(test *testing.T){
    bus := NewBus()
    cpu := NewCPU(bus, nil, nil)
    cpu.PC = 0x4321

    err := LoadCore(bytes.NewReader(make([]byte, 100)), cpu, bus)
    if err == nil {
        test.Fatalf("expected an error for a short core")
    }

    if cpu.PC != 0x4321 {
        test.Fatalf("a failed load should not change the cpu")
    }
}
