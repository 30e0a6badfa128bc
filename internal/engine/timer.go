package engine

import "time"

// tickStep is how much the local countdown drops per tick.
const tickStep = 1000 // milliseconds

// startTimer re-anchors the local countdown: the previous ticker is
// always cancelled first, so at most one is ever active. The local
// countdown is advisory display state only; round and word progression
// are driven exclusively by server pushes.
func (e *Engine) startTimer(remainingMs int) {
	e.stopTimer()
	if remainingMs <= 0 {
		return
	}
	e.ticker = e.clock.NewTicker(time.Second)
}

func (e *Engine) stopTimer() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	e.ticker = nil
}

// onTick decrements the countdown by one step, floored at zero, and
// stops the ticker once it gets there.
func (e *Engine) onTick() {
	next := e.replica
	next.TimerRemaining = max(0, next.TimerRemaining-tickStep)
	e.replica = next
	if next.TimerRemaining == 0 {
		e.stopTimer()
	}
}
