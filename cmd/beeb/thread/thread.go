package thread

import (
    "sync"
    "context"
)

/* Goroutines of the host program (machine, stdin reader, signal watcher).
 * Any of them can stop all the others through the shared context, and the
 * first error returned by a spawned function is kept for the caller.
 */
type ThreadGroup struct {
    wait sync.WaitGroup
    quit context.Context
    cancel context.CancelFunc

    lock sync.Mutex
    err error
}

type ThreadFuncCancel func(quit context.Context, cancel context.CancelFunc)
type ThreadFuncError func(quit context.Context) error
type ThreadFunc func()

func NewThreadGroup(parent context.Context) *ThreadGroup {
    quit, cancel := context.WithCancel(parent)
    return &ThreadGroup{
        quit: quit,
        cancel: cancel,
    }
}

/* a group with its own threads. the parent waits for the subgroup to finish */
func (group *ThreadGroup) SubGroup() *ThreadGroup {
    out := NewThreadGroup(group.quit)

    group.wait.Add(1)
    go func(){
        defer group.wait.Done()
        <-out.quit.Done()
        out.wait.Wait()
        group.setError(out.Err())
    }()

    return out
}

func (group *ThreadGroup) setError(err error){
    if err == nil {
        return
    }

    group.lock.Lock()
    defer group.lock.Unlock()
    if group.err == nil {
        group.err = err
    }
}

func (group *ThreadGroup) SpawnWithCancel(f ThreadFuncCancel){
    group.wait.Add(1)
    go func(){
        defer group.wait.Done()
        f(group.quit, group.cancel)
    }()
}

/* an error from f cancels the whole group */
func (group *ThreadGroup) SpawnError(f ThreadFuncError){
    group.wait.Add(1)
    go func(){
        defer group.wait.Done()
        err := f(group.quit)
        if err != nil {
            group.setError(err)
            group.cancel()
        }
    }()
}

func (group *ThreadGroup) Spawn(f ThreadFunc) {
    group.wait.Add(1)
    go func(){
        defer group.wait.Done()
        f()
    }()
}

func (group *ThreadGroup) Cancel(){
    group.cancel()
}

func (group *ThreadGroup) Context() context.Context {
    return group.quit
}

func (group *ThreadGroup) Done() <-chan struct{} {
    return group.quit.Done()
}

func (group *ThreadGroup) Err() error {
    group.lock.Lock()
    defer group.lock.Unlock()
    return group.err
}

/* wait for every thread, then return the first error any of them reported */
func (group *ThreadGroup) Wait() error {
    group.wait.Wait()
    group.cancel()
    return group.Err()
}
