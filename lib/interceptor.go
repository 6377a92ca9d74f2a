package lib

/* A host implementation of a routine that normally lives in rom. The handler
 * gets the full cpu (registers and bus) and returns true if it did all the
 * work of the call, in which case the cpu skips the jsr entirely. Returning
 * false lets the call go ahead into rom as usual.
 */
type Interceptor func(cpu *CPUState, mnemonic Mnemonic, mode AddressingMode, operand uint16) bool

/* vector address -> handler. filled in once while the os is being set up and
 * only read after the machine starts running.
 */
type Interceptors struct {
    handlers map[uint16]Interceptor
}

func NewInterceptors() *Interceptors {
    return &Interceptors{
        handlers: make(map[uint16]Interceptor),
    }
}

func (interceptors *Interceptors) AddInterceptor(vector uint16, handler Interceptor){
    interceptors.handlers[vector] = handler
}

func (interceptors *Interceptors) Has(vector uint16) bool {
    _, ok := interceptors.handlers[vector]
    return ok
}

func (interceptors *Interceptors) Dispatch(cpu *CPUState, mnemonic Mnemonic, mode AddressingMode, operand uint16) bool {
    handler, ok := interceptors.handlers[operand]
    if !ok {
        return false
    }

    return handler(cpu, mnemonic, mode, operand)
}
