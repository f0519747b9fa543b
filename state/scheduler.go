package state

import (
	"time"
)

// Dispatch Dispatches the function to run on the node's goroutine without waiting for it to complete.
// The function is dropped if the node has stopped.
func (e *Env) Dispatch(fun func(*State) error) {
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait Dispatches the function to run on the node's goroutine and wait for it to complete
func (e *Env) DispatchWait(fun func(*State) (any, error)) (any, error) {
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
	if delay <= 0 {
		go e.Dispatch(fun)
		return
	}
	time.AfterFunc(delay, func() {
		e.Dispatch(fun)
	})
}

func (e *Env) repeatedTask(fun func(*State) error, offset, delay time.Duration) {
	if offset > 0 {
		select {
		case <-time.After(offset):
		case <-e.Context.Done():
			return
		}
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for e.Context.Err() == nil {
		e.Dispatch(fun)
		select {
		case <-ticker.C:
		case <-e.Context.Done():
			return
		}
	}
}

// RepeatTask dispatches fun every delay, starting after offset.
func (e *Env) RepeatTask(fun func(*State) error, offset, delay time.Duration) {
	go e.repeatedTask(fun, offset, delay)
}
