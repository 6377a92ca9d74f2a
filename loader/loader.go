package loader

/* Puts rom and program images into memory before the machine starts. All of
 * these write with Bus.Copy, so no device hook sees the load.
 */

import (
    "bufio"
    "encoding/binary"
    "errors"
    "fmt"
    "io"
    "os"

    "github.com/kazzmir/beeb/lib"
)

/* the bbc has one 16k paged rom slot at 0x8000 and the os rom at 0xc000 */
const (
    LanguageRomBase uint16 = 0x8000
    OSRomBase uint16 = 0xc000
)

type Kind string

const (
    KindROM Kind = "rom"
    KindProgram Kind = "program"
    KindSegmented Kind = "segmented"
)

/* copy the image verbatim starting at base. returns the number of bytes loaded */
func LoadROM(bus *lib.Bus, base uint16, reader io.Reader) (int, error) {
    data, err := io.ReadAll(reader)
    if err != nil {
        return 0, err
    }

    if int(base) + len(data) > lib.BusSize {
        return 0, fmt.Errorf("rom of %v bytes does not fit at 0x%04x", len(data), base)
    }

    bus.Copy(base, data)
    return len(data), nil
}

/* a two byte little endian origin followed by the code that goes there. the
 * origin is also where execution starts.
 */
func LoadProgram(bus *lib.Bus, reader io.Reader) (uint16, error) {
    var origin uint16
    err := binary.Read(reader, binary.LittleEndian, &origin)
    if err != nil {
        return 0, fmt.Errorf("could not read program origin: %v", err)
    }

    code, err := io.ReadAll(reader)
    if err != nil {
        return 0, err
    }

    bus.Copy(origin, code)
    return origin, nil
}

type segmentHeader struct {
    Origin uint16
    Length uint16
}

/* Records of (origin, length, payload) until the end of the input. Execution
 * starts at the origin of the first record.
 */
func LoadSegmented(bus *lib.Bus, reader io.Reader) (uint16, error) {
    var entry uint16
    count := 0

    for {
        var header segmentHeader
        err := binary.Read(reader, binary.LittleEndian, &header)
        if errors.Is(err, io.EOF) {
            break
        }
        if err != nil {
            return 0, fmt.Errorf("segment %v: truncated header: %v", count, err)
        }

        payload := make([]byte, header.Length)
        _, err = io.ReadFull(reader, payload)
        if err != nil {
            return 0, fmt.Errorf("segment %v at 0x%04x: expected %v bytes: %v", count, header.Origin, header.Length, err)
        }

        bus.Copy(header.Origin, payload)

        if count == 0 {
            entry = header.Origin
        }
        count += 1
    }

    if count == 0 {
        return 0, fmt.Errorf("no segments found")
    }

    return entry, nil
}

/* Load a file of the given kind. base is only used for roms. The returned entry
 * point is 0 for roms, the cpu takes its start from the reset vector instead.
 */
func LoadFile(bus *lib.Bus, path string, kind Kind, base uint16) (uint16, error) {
    file, err := os.Open(path)
    if err != nil {
        return 0, err
    }
    defer file.Close()

    reader := bufio.NewReader(file)

    switch kind {
        case KindROM:
            _, err := LoadROM(bus, base, reader)
            if err != nil {
                return 0, fmt.Errorf("could not load rom %v: %v", path, err)
            }
            return 0, nil
        case KindProgram:
            entry, err := LoadProgram(bus, reader)
            if err != nil {
                return 0, fmt.Errorf("could not load program %v: %v", path, err)
            }
            return entry, nil
        case KindSegmented:
            entry, err := LoadSegmented(bus, reader)
            if err != nil {
                return 0, fmt.Errorf("could not load %v: %v", path, err)
            }
            return entry, nil
    }

    return 0, fmt.Errorf("unknown image kind '%v'", kind)
}
