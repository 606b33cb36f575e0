package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/untangle/pkg/pipeline"
	"github.com/matzehuels/untangle/pkg/strategy"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCycle    = lipgloss.NewStyle().Foreground(colorRed)
	styleStrategy = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printCycle prints one cycle path, highlighted.
func printCycle(text string) {
	fmt.Println("  " + styleCycle.Render(text))
}

// printOutcome prints one resolution outcome line.
func printOutcome(o pipeline.EdgeOutcome) {
	edge := fmt.Sprintf("%s %s %s (%s)", o.Edge.From, iconArrow, o.Edge.To, o.Edge.Kind)
	switch o.Result.Outcome {
	case strategy.Applied:
		fmt.Println("  " + styleIconSuccess.Render(iconSuccess) + " " + StyleValue.Render(edge) +
			" " + StyleDim.Render("via") + " " + styleStrategy.Render(o.Strategy))
	case strategy.Failed:
		fmt.Println("  " + styleIconError.Render(iconError) + " " + StyleValue.Render(edge) +
			" " + StyleDim.Render(o.Result.Reason))
	default:
		fmt.Println("  " + styleIconWarning.Render(iconWarning) + " " + StyleValue.Render(edge) +
			" " + StyleDim.Render("no strategy applies"))
	}
}

// printStats prints analysis statistics on a single line.
func printStats(nodes, edges, cycleCount int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d components", nodes),
		fmt.Sprintf("%d edges", edges),
		fmt.Sprintf("%d cycles", cycleCount),
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Println(line)
}
