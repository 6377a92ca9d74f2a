package main

import (
    "bytes"
    "io"
    "log"
    "os"

    "golang.org/x/term"
)

/* keyboard and screen of the emulated machine, on the host terminal */
type Terminal struct {
    Keys chan byte
    /* ctrl-c in raw mode arrives as a byte instead of a signal */
    Interrupt chan struct{}
    /* also called for every key, set before ReadKeys starts */
    OnKey func(key byte)

    fd int
    oldState *term.State
}

func MakeTerminal() *Terminal {
    return &Terminal{
        Keys: make(chan byte, 64),
        Interrupt: make(chan struct{}, 1),
        fd: int(os.Stdin.Fd()),
    }
}

/* put the terminal in raw mode so keys arrive one at a time and without echo.
 * does nothing if stdin is not a terminal
 */
func (terminal *Terminal) Start() error {
    if !term.IsTerminal(terminal.fd) {
        return nil
    }

    state, err := term.MakeRaw(terminal.fd)
    if err != nil {
        return err
    }
    terminal.oldState = state
    return nil
}

func (terminal *Terminal) IsRaw() bool {
    return terminal.oldState != nil
}

func (terminal *Terminal) Restore(){
    if terminal.oldState != nil {
        err := term.Restore(terminal.fd, terminal.oldState)
        if err != nil {
            log.Printf("Could not restore terminal: %v", err)
        }
        terminal.oldState = nil
    }
}

/* Reads stdin until it ends, then closes Keys. The read cannot be cancelled so
 * this runs outside the thread group and is simply abandoned on exit.
 */
func (terminal *Terminal) ReadKeys(input io.Reader){
    defer close(terminal.Keys)

    buffer := make([]byte, 64)
    for {
        count, err := input.Read(buffer)
        for _, key := range buffer[:count] {
            switch key {
                case 0x03:
                    select {
                        case terminal.Interrupt <- struct{}{}:
                        default:
                    }
                    continue
                /* the bbc uses cr for return */
                case '\n':
                    key = 0x0d
            }
            if terminal.OnKey != nil {
                terminal.OnKey(key)
            }
            terminal.Keys <- key
        }
        if err != nil {
            return
        }
    }
}

/* in raw mode the terminal no longer turns \n into \r\n */
type rawWriter struct {
    out io.Writer
}

func (writer *rawWriter) Write(data []byte) (int, error) {
    _, err := writer.out.Write(bytes.ReplaceAll(data, []byte{'\n'}, []byte{'\r', '\n'}))
    if err != nil {
        return 0, err
    }
    return len(data), nil
}

func (terminal *Terminal) Output(out io.Writer) io.Writer {
    if terminal.IsRaw() {
        return &rawWriter{out: out}
    }
    return out
}
