package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	// Report colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
	Version = color.New(color.FgGreen)
	Unused  = color.New(color.FgYellow)
	Failure = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// FormatSection formats a buildout section header
func FormatSection(name string) string {
	return Header.Sprintf("[%s]", name)
}

// FormatPin formats a "name = version" line with the name left-justified to
// width, the way the pin would be written in the versions section.
func FormatPin(name, version string, width int) string {
	padding := ""
	if n := width - utf8.RuneCountInString(name); n > 0 {
		padding = strings.Repeat(" ", n)
	}
	return Package.Sprint(name) + padding + "= " + Version.Sprint(version)
}

// Reporter prints command results. Reports are the normal output of a
// command and are silenced together with warnings.
type Reporter struct {
	out     io.Writer
	enabled bool
}

// NewReporter creates a reporter writing to out. A disabled reporter prints
// nothing.
func NewReporter(out io.Writer, enabled bool) *Reporter {
	return &Reporter{out: out, enabled: enabled}
}

func (r *Reporter) println(s string) {
	if r.enabled {
		fmt.Fprintln(r.out, s)
	}
}

// Section prints a section header
func (r *Reporter) Section(name string) {
	r.println(FormatSection(name))
}

// Pin prints an aligned pin line
func (r *Reporter) Pin(name, version string, width int) {
	r.println(FormatPin(name, version, width))
}

// Unused prints a pin with no installed egg
func (r *Reporter) Unused(name string) {
	r.println("- " + Unused.Sprint(name) + " is unused.")
}

// Indented prints a successfully rewritten file
func (r *Reporter) Indented(source string, width int) {
	r.println(fmt.Sprintf("- %s (re)indented at %d spaces.", source, width))
}

// Unreadable prints a file that could not be read
func (r *Reporter) Unreadable(source string) {
	r.println("- " + Failure.Sprint(source) + " cannot be read.")
}

// Message prints a plain line
func (r *Reporter) Message(format string, args ...interface{}) {
	r.println(fmt.Sprintf(format, args...))
}
