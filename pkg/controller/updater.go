package controller

import (
	"context"
	"time"

	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
)

const updaterTick = 500 * time.Millisecond

// headless reports whether neither the UI-update nor the context-change
// callback is installed. When true, the updater loop skips its not-headless
// branch (UI context-change and table-refresh scheduling); a Controller with
// no callbacks set is therefore headless.
func (c *Controller) headless() bool {
	return c.uiCallback == nil && c.contextChangeCallback == nil
}

// StartUpdater launches the updater routine: a daemon loop that pulls on a
// schedule and, while not headless, keeps the UI refreshed from remote
// state. Call StopUpdater (or Close) to stop it.
func (c *Controller) StartUpdater() {
	if c.stop != nil {
		return
	}

	c.stop = make(chan struct{})
	c.stopped = make(chan struct{})

	go c.updaterLoop()
}

// StopUpdater stops the updater routine started by StartUpdater, if any.
func (c *Controller) StopUpdater() {
	if c.stop == nil {
		return
	}

	close(c.stop)
	<-c.stopped

	c.stop = nil
	c.stopped = nil
}

func (c *Controller) updaterLoop() {
	defer close(c.stopped)

	ticker := time.NewTicker(updaterTick)
	defer ticker.Stop()

	var lastUIRefresh time.Time

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.updaterTick(&lastUIRefresh)
		}
	}
}

func (c *Controller) updaterTick(lastUIRefresh *time.Time) {
	if c.client == nil {
		return
	}

	ctx := context.Background()

	master, err := c.masterState(ctx)
	if err != nil {
		c.logger.Warn("updater: resolve master state failed", "error", err)

		return
	}

	switch {
	case !c.client.EverPulled():
		c.client.Update(master, "User created", c.autoCommit, c.autoPush)
	case c.client.LastPullAttempt() == nil || time.Since(*c.client.LastPullAttempt()) >= c.reloadTime:
		c.client.Update(master, "", c.autoCommit, c.autoPush)
	}

	if c.headless() {
		return
	}

	states, err := c.client.AllStates(ctx, scheduler.Medium)
	if err != nil {
		c.logger.Warn("updater: all_states failed", "error", err)

		return
	}

	if len(states) == 0 {
		return
	}

	c.scheduleUIJob(func() { c.runContextChangeCheck(states) })

	if lastUIRefresh.IsZero() || time.Since(*lastUIRefresh) >= c.reloadTime {
		*lastUIRefresh = time.Now()

		c.scheduleUIJob(func() { c.runTableRefresh(states) })
	}
}

func (c *Controller) scheduleUIJob(fn func()) {
	if err := c.uiSched.ScheduleJob(func() (any, error) { fn(); return nil, nil }, scheduler.Fast); err != nil {
		c.logger.Warn("updater: schedule UI job failed", "error", err)
	}
}

func (c *Controller) runContextChangeCheck(states map[string]*state.State) {
	if c.contextChangeCallback == nil {
		return
	}

	addr, ok := c.decompiler.ActiveContext()
	if !ok {
		return
	}

	for _, s := range states {
		if _, exists := s.FindFuncForAddr(addr); exists {
			c.contextChangeCallback(states)

			return
		}
	}
}

func (c *Controller) runTableRefresh(states map[string]*state.State) {
	if c.uiCallback == nil {
		return
	}

	c.uiCallback(states)
}
