package main

import (
	"fmt"
	"strings"

	"forward-engine/pipeline"
)

// hudInterval is how often the title line refreshes, in seconds.
const hudInterval = 0.5

// hud builds the window title from frame timing and pipeline counters.
type hud struct {
	title   string
	elapsed float32
	frames  int
	lines   []string
}

func newHUD(title string) *hud {
	return &hud{title: title}
}

func (h *hud) addLine(format string, args ...any) {
	h.lines = append(h.lines, fmt.Sprintf(format, args...))
}

// frame accumulates one frame and reports a new title once per interval.
func (h *hud) frame(dt float32, st pipeline.Stats, sky *DayNight) (string, bool) {
	h.elapsed += dt
	h.frames++
	if h.elapsed < hudInterval {
		return "", false
	}
	fps := float32(h.frames) / h.elapsed
	h.elapsed, h.frames = 0, 0

	h.lines = h.lines[:0]
	h.addLine("%s", h.title)
	h.addLine("%.0f fps", fps)
	h.addLine("%d draws", st.DepthDraws+st.ShadowDraws+st.ForwardDraws)
	h.addLine("%d lights", st.Lights)
	if st.ShadowMaps > 0 {
		h.addLine("%d shadow maps", st.ShadowMaps)
	}
	if sky != nil {
		h.addLine("%s", sky.Clock())
	}
	return strings.Join(h.lines, " | "), true
}
