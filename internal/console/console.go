package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
)

const (
	// clearScreen wipes the terminal and moves the cursor home.
	clearScreen = "\x1b[2J\x1b[1;1H"

	// prefix starts every launcher message.
	prefix = "[yellow]Launcher[reset] » "

	// spinnerTick drives the spinner independently of network progress.
	spinnerTick = 100 * time.Millisecond

	// spinnerType is the braille spinner of progressbar.
	spinnerType = 14

	// barThrottle limits redraws of the download bar.
	barThrottle = 65 * time.Millisecond
)

// Console renders launcher messages, the version-check spinner and the download bar.
type Console struct {
	// w receives everything the console prints.
	w io.Writer
	// colors enables ANSI colour codes.
	colors bool
	// colorize expands [color] markup.
	colorize colorstring.Colorize
}

// New creates a console writing to w.
func New(w io.Writer, colors bool) *Console {
	return &Console{
		w:      w,
		colors: colors,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !colors,
			Reset:   false,
		},
	}
}

// Banner clears the screen when colours are on and prints the title.
func (c *Console) Banner() {
	if c.colors {
		_, _ = io.WriteString(c.w, clearScreen)
	}

	_, _ = fmt.Fprintln(c.w, "Lilith Launcher")
	_, _ = fmt.Fprintln(c.w, "===============")
}

// Say prints a prefixed line. Arguments are printed verbatim, without colour markup.
func (c *Console) Say(format string, args ...any) {
	_, _ = fmt.Fprintln(c.w, c.colorize.Color(prefix)+fmt.Sprintf(format, args...))
}

// Underline wraps s in underline codes when colours are on.
func (c *Console) Underline(s string) string {
	if !c.colors {
		return s
	}

	return c.colorize.Color("[underline]") + s + c.colorize.Color("[reset]")
}

// Spinner shows an animated spinner with description until Stop is called.
func (c *Console) Spinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription(c.colorize.Color(prefix)+description),
		progressbar.OptionSpinnerType(spinnerType),
		progressbar.OptionClearOnFinish(),
	)

	s := &Spinner{
		bar:  bar,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go s.spin(spinnerTick)

	return s
}

// DownloadBar shows a 0..100 percent bar for downloading version.
func (c *Console) DownloadBar(version string) *Bar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription(c.colorize.Color(prefix)+"Downloading Lilith v"+version),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(barThrottle),
		progressbar.OptionClearOnFinish(),
	)

	return &Bar{bar: bar}
}

// Spinner is a ticking progress indicator with no known total.
type Spinner struct {
	// bar renders the spinner.
	bar *progressbar.ProgressBar
	// stop asks the ticker goroutine to exit.
	stop chan struct{}
	// done is closed once the ticker goroutine exited.
	done chan struct{}
	// once guards Stop.
	once sync.Once
}

// spin advances the spinner every tick until stop is closed.
func (s *Spinner) spin(tick time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_ = s.bar.Add(1)
		}
	}
}

// Stop halts the animation and clears the spinner line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done

		_ = s.bar.Finish()
	})
}

// Bar is the download progress bar.
type Bar struct {
	// bar renders the percentage.
	bar *progressbar.ProgressBar
	// last is the highest percentage shown so far.
	last int
}

// Update shows percent. Values above 100 are capped; the bar never moves back.
func (b *Bar) Update(percent uint64) {
	value := int(min(percent, 100))
	if value < b.last {
		return
	}

	b.last = value
	_ = b.bar.Set(value)
}

// Last returns the highest percentage shown so far.
func (b *Bar) Last() int {
	return b.last
}

// Finish clears the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
