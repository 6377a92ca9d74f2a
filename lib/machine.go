package lib

import (
    "context"
    "time"

    "golang.org/x/sync/errgroup"
)

type MachineConfig struct {
    /* system via timer 1, the os uses it as a 100hz clock */
    TimerPeriod time.Duration
    /* 50hz pal field rate */
    VsyncPeriod time.Duration
    VIABase uint16
}

func DefaultMachineConfig() MachineConfig {
    return MachineConfig{
        TimerPeriod: 10 * time.Millisecond,
        VsyncPeriod: 20 * time.Millisecond,
        VIABase: SystemVIABase,
    }
}

/* everything needed to run bbc firmware: memory, the cpu and the system via
 * sharing one interrupt line.
 */
type Machine struct {
    Bus *Bus
    CPU *CPUState
    VIA *VIA
    Interceptors *Interceptors
    IRQ *InterruptLine
    Config MachineConfig
}

func NewMachine(config MachineConfig) *Machine {
    if config.TimerPeriod <= 0 {
        config.TimerPeriod = DefaultMachineConfig().TimerPeriod
    }
    if config.VsyncPeriod <= 0 {
        config.VsyncPeriod = DefaultMachineConfig().VsyncPeriod
    }
    if config.VIABase == 0 {
        config.VIABase = SystemVIABase
    }

    bus := NewBus()
    irq := &InterruptLine{}
    cpu := NewCPU(bus, DefaultDecoder(), irq)
    interceptors := NewInterceptors()
    cpu.Interceptors = interceptors

    via := MakeVIA(config.VIABase, irq)
    via.Attach(bus)

    return &Machine{
        Bus: bus,
        CPU: cpu,
        VIA: via,
        Interceptors: interceptors,
        IRQ: irq,
        Config: config,
    }
}

func (machine *Machine) Reset(){
    machine.VIA.Reset()
    machine.CPU.Reset()
}

/* Runs the cpu and the via timers until the context is cancelled or the cpu
 * faults. A fault stops the timers and is returned.
 */
func (machine *Machine) Run(ctx context.Context) error {
    group, ctx := errgroup.WithContext(ctx)
    /* the timers only stop on cancel, so the cpu loop returning has to stop them */
    timerContext, stopTimers := context.WithCancel(ctx)

    group.Go(func() error {
        defer stopTimers()
        return machine.CPU.Run(ctx)
    })

    group.Go(func() error {
        return machine.VIA.Run(timerContext, machine.Config.TimerPeriod, machine.Config.VsyncPeriod)
    })

    return group.Wait()
}
