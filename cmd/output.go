package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RyanBlaney/latency-benchmark-common/output"
)

// ANSI colors. Blanked by disableColors when output.colors is false or
// stdout is not a terminal.
var (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

var titleCaser = cases.Title(language.English)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		disableColors()
	}
}

func disableColors() {
	for _, c := range []*string{
		&ColorReset, &ColorBold, &ColorRed, &ColorGreen, &ColorYellow,
		&ColorBlue, &ColorPurple, &ColorCyan, &ColorWhite,
	} {
		*c = ""
	}
}

// terminalWidth falls back to 80 columns when stdout is not a terminal
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func printHeader(title, subject string) {
	fmt.Printf("%s%s%s%s: %s%s%s\n", ColorBold, ColorBlue, title, ColorReset, ColorCyan, subject, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorBlue, strings.Repeat("═", min(80, terminalWidth())), ColorReset)
}

func printStep(num int, title string) {
	fmt.Printf("%s%s%d%s %s%s%s\n", ColorBold, ColorPurple, num, ColorReset, ColorWhite, title, ColorReset)
}

func printSectionHeader(title string) {
	fmt.Printf("%s%s%s%s\n", ColorBold, ColorBlue, title, ColorReset)
}

func printSuccess(format string, args ...any) {
	fmt.Printf("   %s✓%s %s\n", ColorGreen, ColorReset, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Printf("   %s⚠%s %s\n", ColorYellow, ColorReset, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Printf("   %s✗%s %s\n", ColorRed, ColorReset, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("   %s•%s %s\n", ColorCyan, ColorReset, fmt.Sprintf(format, args...))
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

var structuredFormatters = map[string]output.Formatter{
	"json": &output.JSONFormatter{},
	"yaml": &output.YAMLFormatter{},
	"yml":  &output.YAMLFormatter{},
}

// writeStructured encodes v as json or yaml
func writeStructured(w io.Writer, v any, format string) error {
	formatter, ok := structuredFormatters[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unsupported output format %q", format)
	}
	data, err := formatter.Format(v, true)
	if err != nil {
		return fmt.Errorf("failed to format %s output: %w", format, err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// isStructured reports whether format asks for machine-readable output
func isStructured(format string) bool {
	_, ok := structuredFormatters[strings.ToLower(format)]
	return ok
}

// PerformanceTimer records named phases of a command
type PerformanceTimer struct {
	mu     sync.Mutex
	start  time.Time
	begun  map[string]time.Time
	events map[string]time.Duration
	order  []string
}

func NewPerformanceTimer() *PerformanceTimer {
	return &PerformanceTimer{
		start:  time.Now(),
		begun:  make(map[string]time.Time),
		events: make(map[string]time.Duration),
	}
}

func (pt *PerformanceTimer) StartEvent(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.begun[name] = time.Now()
}

func (pt *PerformanceTimer) EndEvent(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	start, ok := pt.begun[name]
	if !ok {
		return
	}
	if _, seen := pt.events[name]; !seen {
		pt.order = append(pt.order, name)
	}
	pt.events[name] += time.Since(start)
	delete(pt.begun, name)
}

func (pt *PerformanceTimer) GetDuration(name string) time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.events[name]
}

func (pt *PerformanceTimer) GetTotalDuration() time.Duration {
	return time.Since(pt.start)
}

// printTimings lists every finished event in the order it first ended
func printTimings(pt *PerformanceTimer) {
	pt.mu.Lock()
	order := append([]string(nil), pt.order...)
	pt.mu.Unlock()

	printInfo("Performance Breakdown:")
	for _, event := range order {
		name := titleCaser.String(strings.ReplaceAll(event, "_", " "))
		fmt.Printf("      %s: %s\n", name, output.FormatDuration(pt.GetDuration(event)))
	}
	fmt.Printf("\n%sTotal Duration: %s%s\n", ColorBold, output.FormatDuration(pt.GetTotalDuration()), ColorReset)
}
