package main

import (
    "context"
    "fmt"
    "log"
    "os"
    "os/signal"
    "strconv"
    "sync/atomic"
    "syscall"
    "time"

    "github.com/kazzmir/beeb/cmd/beeb/common"
    "github.com/kazzmir/beeb/cmd/beeb/debug"
    "github.com/kazzmir/beeb/cmd/beeb/thread"
    "github.com/kazzmir/beeb/lib"
    "github.com/kazzmir/beeb/loader"
    "github.com/kazzmir/beeb/mos"
)

/* a program that returns with rts lands here, which stops the machine. only
 * used when there is no os rom occupying the top of memory
 */
const exitTrap uint16 = 0xff00

/* how long a typed key stays down in the keyboard matrix */
const keyHold = 50 * time.Millisecond

type Options struct {
    OSRom string
    LanguageRom string
    Program string
    Segmented string
    Core string
    SaveCore string
    Debug bool
    Breakpoints []uint16
    MaxInstructions uint64
}

func setupMachine(options Options, config common.ConfigData) (*lib.Machine, error) {
    machineConfig := lib.DefaultMachineConfig()
    machineConfig.TimerPeriod = config.TimerPeriod()
    machineConfig.VsyncPeriod = config.VsyncPeriod()

    machine := lib.NewMachine(machineConfig)
    bus := machine.Bus

    osRom := common.FindFile(options.OSRom)
    if osRom != "" {
        _, err := loader.LoadFile(bus, osRom, loader.KindROM, loader.OSRomBase)
        if err != nil {
            return nil, err
        }
    } else {
        mos.InstallStubs(bus)
    }

    languageRom := common.FindFile(options.LanguageRom)
    if languageRom != "" {
        _, err := loader.LoadFile(bus, languageRom, loader.KindROM, loader.LanguageRomBase)
        if err != nil {
            return nil, err
        }
    }

    machine.Reset()

    var entry uint16
    var haveEntry bool
    if options.Program != "" {
        var err error
        entry, err = loader.LoadFile(bus, options.Program, loader.KindProgram, 0)
        if err != nil {
            return nil, err
        }
        haveEntry = true
    }

    if options.Segmented != "" {
        segmentEntry, err := loader.LoadFile(bus, options.Segmented, loader.KindSegmented, 0)
        if err != nil {
            return nil, err
        }
        if !haveEntry {
            entry = segmentEntry
            haveEntry = true
        }
    }

    if haveEntry {
        machine.CPU.PC = entry
        if osRom == "" {
            bus.Copy(exitTrap, []byte{0xea})
            /* rts adds one to the address it pulls */
            machine.CPU.PushStack(byte((exitTrap - 1) >> 8))
            machine.CPU.PushStack(byte((exitTrap - 1) & 0xff))
        }
    }

    if options.Core != "" {
        file, err := os.Open(options.Core)
        if err != nil {
            return nil, err
        }
        defer file.Close()
        err = lib.LoadCore(file, machine.CPU, bus)
        if err != nil {
            return nil, fmt.Errorf("could not load core %v: %v", options.Core, err)
        }
    }

    if !haveEntry && osRom == "" && options.Core == "" {
        return nil, fmt.Errorf("nothing to run, give an os rom, a program or a core file")
    }

    return machine, nil
}

func saveCore(path string, machine *lib.Machine) error {
    file, err := os.Create(path)
    if err != nil {
        return err
    }
    defer file.Close()
    return lib.SaveCore(file, machine.CPU, machine.Bus)
}

func Run(options Options, config common.ConfigData) error {
    machine, err := setupMachine(options, config)
    if err != nil {
        return err
    }

    terminal := MakeTerminal()
    err = terminal.Start()
    if err != nil {
        log.Printf("Could not put the terminal in raw mode: %v", err)
    }
    defer terminal.Restore()

    /* keys go to the os calls and to the keyboard matrix, for a rom that
     * scans the via itself
     */
    terminal.OnKey = func(key byte){
        machine.VIA.TypeKey(key, keyHold)
    }
    go terminal.ReadKeys(os.Stdin)

    host := mos.MakeHost(terminal.Output(os.Stdout), terminal.Keys)
    host.Install(machine.Interceptors)

    group := thread.NewThreadGroup(context.Background())

    /* first reason wins, it is set from the cpu and the signal watcher */
    var stopReason atomic.Pointer[string]
    setStop := func(reason string){
        stopReason.CompareAndSwap(nil, &reason)
    }

    debugger := debug.MakeDebugger(func(cpu *lib.CPUState, reason string){
        setStop(reason)
    })
    debugger.Trace = options.Debug
    debugger.MaxInstructions = options.MaxInstructions
    for _, breakpoint := range options.Breakpoints {
        debugger.AddPCBreakpoint(breakpoint)
    }
    debugger.Install(machine.CPU)

    machine.CPU.AddPreObserver(func(cpu *lib.CPUState, mnemonic lib.Mnemonic, mode lib.AddressingMode){
        if cpu.PC == exitTrap && options.OSRom == "" {
            setStop("program returned")
            cpu.Halt()
        }
    })

    group.SpawnError(func(quit context.Context) error {
        defer group.Cancel()
        return machine.Run(quit)
    })

    group.SpawnWithCancel(func(quit context.Context, cancel context.CancelFunc){
        signals := make(chan os.Signal, 1)
        signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
        defer signal.Stop(signals)

        select {
            case <-quit.Done():
            case <-signals:
                setStop("interrupted")
                cancel()
            case <-terminal.Interrupt:
                setStop("interrupted")
                cancel()
        }
    })

    err = group.Wait()
    terminal.Restore()

    reason := stopReason.Load()
    if reason != nil {
        reportStop(os.Stderr, machine.CPU, *reason)
    }

    if options.SaveCore != "" {
        saveErr := saveCore(options.SaveCore, machine)
        if saveErr != nil {
            log.Printf("Could not save core to %v: %v", options.SaveCore, saveErr)
        }
    }

    return err
}

func main(){
    log.SetFlags(log.Lshortfile | log.Lmicroseconds)

    config, err := common.LoadConfigData()
    if err != nil && !os.IsNotExist(err) {
        log.Printf("Using default config: %v", err)
    }

    options := Options{
        OSRom: config.OSRom,
        LanguageRom: config.LanguageRom,
    }

    nextArgument := func(argIndex int, name string) string {
        if argIndex >= len(os.Args) {
            log.Fatalf("Expected an argument for %v", name)
        }
        return os.Args[argIndex]
    }

    argIndex := 1
    for argIndex < len(os.Args) {
        arg := os.Args[argIndex]
        switch arg {
            case "-debug", "--debug":
                options.Debug = true
            case "-os", "--os":
                argIndex += 1
                options.OSRom = nextArgument(argIndex, arg)
            case "-rom", "--rom":
                argIndex += 1
                options.LanguageRom = nextArgument(argIndex, arg)
            case "-program", "--program":
                argIndex += 1
                options.Program = nextArgument(argIndex, arg)
            case "-segmented", "--segmented":
                argIndex += 1
                options.Segmented = nextArgument(argIndex, arg)
            case "-core", "--core":
                argIndex += 1
                options.Core = nextArgument(argIndex, arg)
            case "-save-core", "--save-core":
                argIndex += 1
                options.SaveCore = nextArgument(argIndex, arg)
            case "-break", "--break":
                argIndex += 1
                address, err := common.ParseAddress(nextArgument(argIndex, arg))
                if err != nil {
                    log.Fatalf("Error reading breakpoint: %v", err)
                }
                options.Breakpoints = append(options.Breakpoints, address)
            case "-steps", "--steps":
                argIndex += 1
                steps, err := strconv.ParseUint(nextArgument(argIndex, arg), 10, 64)
                if err != nil {
                    log.Fatalf("Error parsing steps: %v", err)
                }
                options.MaxInstructions = steps
            default:
                /* a bare argument is a program to run */
                options.Program = arg
        }

        argIndex += 1
    }

    err = Run(options, config)
    if err != nil {
        if !reportFault(os.Stderr, err) {
            log.Printf("Error: %v", err)
        }
        os.Exit(1)
    }
}
