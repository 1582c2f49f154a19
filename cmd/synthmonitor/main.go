// Command synthmonitor is a terminal status display for a running engine.
// It owns no audio state of its own: it polls an Engine, a RenderGraph and
// an ErrorHandler on a tick and draws what it finds, the way a frame
// renderer draws from whatever state the world currently holds.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/synthcore/audio"
	"github.com/lixenwraith/synthcore/core"
	"github.com/lixenwraith/synthcore/parameter"
	"github.com/lixenwraith/synthcore/service"
)

var (
	rgbBackground = tcell.NewRGBColor(26, 27, 38)
	rgbText       = tcell.NewRGBColor(200, 200, 200)
	rgbLabel      = tcell.NewRGBColor(120, 130, 150)
	rgbMeterEmpty = tcell.NewRGBColor(40, 42, 54)
	rgbClip       = tcell.NewRGBColor(255, 80, 80)
)

// meterGradient returns the color for a channel meter at the given fill
// level (0..1), blending green->yellow->red through Lab space so the
// midpoint doesn't wash out to a muddy brown the way raw RGB lerp would.
func meterGradient(level float64) tcell.Color {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	green := colorful.Color{R: 0.2, G: 0.85, B: 0.3}
	yellow := colorful.Color{R: 0.9, G: 0.8, B: 0.1}
	red := colorful.Color{R: 0.9, G: 0.2, B: 0.2}

	var c colorful.Color
	if level < 0.5 {
		c = green.BlendLab(yellow, level/0.5)
	} else {
		c = yellow.BlendLab(red, (level-0.5)/0.5)
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range text {
		s.SetContent(x+i, y, ch, nil, style)
	}
}

func drawChannelRow(s tcell.Screen, y int, channel int, eng *audio.Engine) {
	base := tcell.StyleDefault.Background(rgbBackground)
	label := fmt.Sprintf("ch%-2d", channel)
	drawText(s, 0, y, label, base.Foreground(rgbLabel))

	active := eng.Channel(channel).ActiveVoiceCount()
	total := eng.Channel(channel).VoiceCount()
	level := 0.0
	if total > 0 {
		level = float64(active) / float64(total)
	}

	const meterWidth = 32
	meterX := 6
	filled := int(level * meterWidth)
	color := meterGradient(level)
	for x := 0; x < meterWidth; x++ {
		style := base.Foreground(rgbMeterEmpty)
		ch := '░'
		if x < filled {
			style = base.Foreground(color)
			ch = '█'
		}
		s.SetContent(meterX+x, y, ch, nil, style)
	}

	counts := fmt.Sprintf(" %2d/%2d", active, total)
	drawText(s, meterX+meterWidth+1, y, counts, base.Foreground(rgbText))
}

func drawFrame(s tcell.Screen, eng *audio.Engine, handler *audio.ErrorHandler, startTime time.Time) {
	s.Clear()
	base := tcell.StyleDefault.Background(rgbBackground)

	title := "synthmonitor"
	drawText(s, 0, 0, title, base.Foreground(rgbText).Bold(true))
	drawText(s, len(title)+2, 0, fmt.Sprintf("uptime %s", time.Since(startTime).Round(time.Second)), base.Foreground(rgbLabel))

	for ch := 0; ch < parameter.MaxMIDIChannels; ch++ {
		drawChannelRow(s, ch+2, ch, eng)
	}

	statsY := parameter.MaxMIDIChannels + 3
	drawText(s, 0, statsY, fmt.Sprintf("active voices: %d/%d", eng.ActiveVoiceCount(), eng.TotalVoiceCount()), base.Foreground(rgbText))

	if handler != nil {
		snap := handler.Snapshot()
		line := fmt.Sprintf("cpu %.0f%%  latency %.2fms  jitter %.2fms  rt errors %d dropped %d",
			snap.AvgCPULoad*100, snap.AvgLatencyMs, snap.MaxJitterMs, snap.RTErrorsQueued, snap.RTErrorsDropped)
		style := base.Foreground(rgbText)
		if snap.RTErrorsDropped > 0 {
			style = base.Foreground(rgbClip)
		}
		drawText(s, 0, statsY+1, line, style)
	}

	drawText(s, 0, statsY+3, "press q to quit", base.Foreground(rgbLabel))
	s.Show()
}

func main() {
	configPath := flag.String("config", "synthcore.toml", "engine config path")
	flag.Parse()

	svc := service.NewEngineService(*configPath)
	if err := svc.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "synthmonitor: init engine service: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "synthmonitor: start engine service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Stop()

	eng := svc.Engine()
	handler := svc.Errors()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthmonitor: create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "synthmonitor: init screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	eventChan := make(chan tcell.Event, 16)
	core.SafeGo(nil, func() {
		for {
			eventChan <- screen.PollEvent()
		}
	})

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	startTime := time.Now()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Rune() == 'q' || ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			drawFrame(screen, eng, handler, startTime)
		}
	}
}
