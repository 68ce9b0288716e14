package ux

import (
	"fmt"
	"os"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// SourceHeader prints a timestamped header for one generator run.
func SourceHeader(index, total int, name string) {
	fmt.Printf("\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Printf("%s[%s]%s  %sSource %d/%d: %s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, name, Reset)
	fmt.Printf("%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// SourceComplete prints a generator completion line.
func SourceComplete(name, counts string, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Printf("%s[%s]%s  %s✓ %s complete: %s (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, name, counts, m, s, Reset)
}

// SourceFail prints a generator failure line. The run continues.
func SourceFail(name, errMsg string) {
	fmt.Printf("%s[%s]%s  %s✗ %s failed: %s%s\n",
		Dim, timestamp(), Reset, Red, name, errMsg, Reset)
}

// SourceSkip prints a skipped-source line.
func SourceSkip(name, reason string) {
	fmt.Printf("%s[%s]%s  %s– %s skipped (%s)%s\n",
		Dim, timestamp(), Reset, Dim, name, reason, Reset)
}

// ItemCreated prints one successful submission.
func ItemCreated(kind, title string) {
	fmt.Printf("  %s✓%s Created %s: %s\n", Green, Reset, kind, title)
}

// ItemFailed prints one failed submission.
func ItemFailed(kind, title, errMsg string) {
	fmt.Printf("  %s✗ Failed to create %s %s: %s%s\n", Red, kind, title, errMsg, Reset)
}

// Warn prints a non-fatal problem to stderr.
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%swarning:%s %s\n", Yellow, Reset, fmt.Sprintf(format, args...))
}

// Info prints a plain progress line.
func Info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// Heading prints a bold section title.
func Heading(title string) {
	fmt.Printf("\n%s%s%s\n", Bold, title, Reset)
}

// Success prints the final line of a run.
func Success(created, failed int) {
	color := Green
	if failed > 0 {
		color = Yellow
	}
	fmt.Printf("\n%s[%s]%s  %s%s══ %d items created, %d failed ══%s\n\n",
		Dim, timestamp(), Reset, Bold, color, created, failed, Reset)
}
