package state

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Dispatch dispatches the function to run on the main loop without waiting
// for it to complete
func (e *Env) Dispatch(fun func(*State) error) {
	defer func() {
		if r := recover(); r != nil {
			e.Cancel(fmt.Errorf("panic: %v", r))
		}
	}()
	e.DispatchChannel <- fun
}

// DispatchWait dispatches the function to run on the main loop and waits
// for it to complete
func (e *Env) DispatchWait(fun func(*State) (any, error)) (any, error) {
	// buffered so an abandoned wait can never wedge the main loop
	ret := make(chan Pair[any, error], 1)
	e.Dispatch(func(s *State) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return err
	})
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

func (e *Env) ScheduleTask(fun func(*State) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if e.Context.Err() == nil {
			e.Dispatch(fun)
		}
	})
}

func (e *Env) repeatedTask(fun func(*State) error, delay time.Duration, jitter float64) {
	for e.Context.Err() == nil {
		e.Dispatch(fun)
		d := delay
		if jitter > 0 {
			// spread within ±jitter of the period
			d += time.Duration((rand.Float64()*2 - 1) * jitter * float64(delay))
		}
		time.Sleep(d)
	}
}

func (e *Env) RepeatTask(fun func(*State) error, delay time.Duration) {
	go e.repeatedTask(fun, delay, 0)
}

// RepeatJitterTask runs fun on a period randomized within ±jitter of delay.
// Used for LSA origination so freshly started topologies don't flood in
// lockstep.
func (e *Env) RepeatJitterTask(fun func(*State) error, delay time.Duration, jitter float64) {
	go e.repeatedTask(fun, delay, jitter)
}
