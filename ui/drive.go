package ui

import (
	"context"

	log "github.com/sirupsen/logrus"

	"mpureader/acquisition"
)

// Drive renders every published update and feeds key presses back to the
// loop until ctx is done or p asks to quit. A nil or closed events channel
// leaves p render-only.
func Drive(ctx context.Context, loop *acquisition.Loop, p Presentation, events <-chan Event, logger log.FieldLogger) {
	render := func() {
		if err := p.Render(loop.Snapshot()); err != nil {
			logger.Warnln("render failed:", err)
		}
	}
	render()

	for {
		select {
		case <-ctx.Done():
			return
		case <-loop.Updated():
			render()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if c, ok := p.HandleInput(ev); ok {
				if err := loop.Apply(c); err != nil {
					logger.WithField("change", c.String()).Debugln("change not applied:", err)
				}
			}
			if p.Quit() {
				return
			}
			render()
		}
	}
}
