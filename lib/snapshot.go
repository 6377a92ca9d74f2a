package lib

import (
    "encoding/binary"
    "fmt"
    "io"
)

/* register block at the start of a core file */
type coreHeader struct {
    PC uint16
    SP byte
    A byte
    X byte
    Y byte
    Status byte
}

/* Writes the registers followed by all 64k of memory. Memory is read without
 * the hooks so taking a snapshot never disturbs a device.
 */
func SaveCore(writer io.Writer, cpu *CPUState, bus *Bus) error {
    header := coreHeader{
        PC: cpu.PC,
        SP: cpu.SP,
        A: cpu.A,
        X: cpu.X,
        Y: cpu.Y,
        Status: cpu.Status,
    }

    err := binary.Write(writer, binary.LittleEndian, &header)
    if err != nil {
        return fmt.Errorf("could not write registers: %v", err)
    }

    _, err = writer.Write(bus.Dump())
    if err != nil {
        return fmt.Errorf("could not write memory: %v", err)
    }

    return nil
}

func LoadCore(reader io.Reader, cpu *CPUState, bus *Bus) error {
    var header coreHeader
    err := binary.Read(reader, binary.LittleEndian, &header)
    if err != nil {
        return fmt.Errorf("could not read registers: %v", err)
    }

    memory := make([]byte, BusSize)
    _, err = io.ReadFull(reader, memory)
    if err != nil {
        return fmt.Errorf("could not read memory: %v", err)
    }

    cpu.PC = header.PC
    cpu.SP = header.SP
    cpu.A = header.A
    cpu.X = header.X
    cpu.Y = header.Y
    cpu.Status = header.Status

    bus.Copy(0, memory)

    return nil
}
