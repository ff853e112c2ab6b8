package loop

import "fmt"

const (
	StatusIdle     = "idle"
	StatusStarting = "running…"
	StatusClicking = "clicking “Load more”…"
	StatusStopped  = "stopped"
	StatusError    = "error (see log)"
)

func runningStatus(s State) string {
	return fmt.Sprintf("running · h=%d · stagnant=%d/%d", s.LastHeight, s.StagnantCount, s.MaxStagnantTicks)
}
