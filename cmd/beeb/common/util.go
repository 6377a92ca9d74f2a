package common

import (
    "os"
    "fmt"
    "strconv"
    "strings"
    "path/filepath"
)

func FileExists(path string) bool {
    info, err := os.Stat(path)
    if os.IsNotExist(err) {
        return false
    }

    return !info.IsDir()
}

/* look next to the executable first, so roms shipped alongside the binary are found */
func FindFile(path string) string {
    if path == "" {
        return path
    }

    execRelative := filepath.Join(filepath.Dir(os.Args[0]), path)
    if FileExists(execRelative) {
        return execRelative
    }

    return path
}

/* accepts 0x1234, &1234 (bbc style) or $1234 as hex, anything else as decimal */
func ParseAddress(text string) (uint16, error) {
    base := 10
    switch {
        case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
            text = text[2:]
            base = 16
        case strings.HasPrefix(text, "&"), strings.HasPrefix(text, "$"):
            text = text[1:]
            base = 16
    }

    value, err := strconv.ParseUint(text, base, 16)
    if err != nil {
        return 0, fmt.Errorf("invalid address '%v': %v", text, err)
    }

    return uint16(value), nil
}
