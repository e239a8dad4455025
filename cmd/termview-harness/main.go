package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"golang.org/x/term"

	"github.com/andyrewlee/termview/internal/app"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/perf"
)

type stats struct {
	avg time.Duration
	min time.Duration
	max time.Duration
	p50 time.Duration
	p95 time.Duration
	p99 time.Duration
}

func main() {
	defWidth, defHeight := 160, 48
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		defWidth, defHeight = w, h
	}

	width := flag.Int("width", defWidth, "host width in columns")
	height := flag.Int("height", defHeight, "host height in rows")
	frames := flag.Int("frames", 300, "number of measured frames")
	warmup := flag.Int("warmup", 30, "warmup frames to ignore")
	payloadBytes := flag.Int("payload-bytes", 64, "bytes written per frame")
	newlineEvery := flag.Int("newline-every", 0, "emit newline every N frames (0 disables)")
	resizeEvery := flag.Int("resize-every", 50, "toggle host width every N frames (0 disables)")
	fontEvery := flag.Int("font-every", 75, "step the font size every N frames (0 disables)")
	decorations := flag.Bool("decorations", true, "mix underline and strikeout runs into the output")
	configPath := flag.String("config", "", "config file")
	flag.Parse()

	logging.SetOutput(io.Discard, logging.LevelError)
	perf.SetEnabled(true)

	h, err := app.NewHarness(app.HarnessOptions{
		Width:        *width,
		Height:       *height,
		ConfigPath:   *configPath,
		PayloadBytes: *payloadBytes,
		NewlineEvery: *newlineEvery,
		ResizeEvery:  *resizeEvery,
		FontEvery:    *fontEvery,
		Decorations:  *decorations,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "harness init failed: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	totalFrames := *warmup + *frames
	if totalFrames <= 0 {
		fmt.Fprintln(os.Stderr, "frames + warmup must be > 0")
		os.Exit(1)
	}

	durations := make([]time.Duration, 0, *frames)
	startAll := time.Now()

	for i := 0; i < totalFrames; i++ {
		start := time.Now()
		if err := h.Step(i); err != nil {
			fmt.Fprintf(os.Stderr, "step %d: %v\n", i, err)
			os.Exit(1)
		}
		if _, err := h.Render(); err != nil {
			fmt.Fprintf(os.Stderr, "frame %d: %v\n", i, err)
			os.Exit(1)
		}
		if i >= *warmup {
			durations = append(durations, time.Since(start))
		}
	}

	total := time.Since(startAll)
	s := summarize(durations)
	_, counters := perf.Snapshot()
	rs := h.Stats()
	fmt.Printf("frames=%d warmup=%d size=%dx%d payload=%dB newline_every=%d resize_every=%d font_every=%d decorations=%t\n",
		*frames, *warmup, *width, *height, *payloadBytes, *newlineEvery, *resizeEvery, *fontEvery, *decorations)
	fmt.Printf("total=%s avg=%s p50=%s p95=%s p99=%s min=%s max=%s fps=%.2f\n",
		total, s.avg, s.p50, s.p95, s.p99, s.min, s.max, fps(durations))
	fmt.Printf("rects=%d render_updates=%d reconciles=%d geometry=%d glyph_rebuilds=%d pty_notifies=%d viewport_resizes=%d\n",
		counters["display.rects"], counters["render_updates"], rs.Reconciles, rs.Geometry, rs.GlyphRebuilds, rs.PtyNotifies, rs.ViewportResizes)
}

func summarize(durations []time.Duration) stats {
	if len(durations) == 0 {
		return stats{}
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return stats{
		avg: total / time.Duration(len(durations)),
		min: sorted[0],
		max: sorted[len(sorted)-1],
		p50: perf.Percentile(sorted, 0.50),
		p95: perf.Percentile(sorted, 0.95),
		p99: perf.Percentile(sorted, 0.99),
	}
}

func fps(durations []time.Duration) float64 {
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	if total <= 0 {
		return 0
	}
	return float64(len(durations)) / total.Seconds()
}
