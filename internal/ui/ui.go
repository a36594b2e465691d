package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	primaryColor   = lipgloss.Color("#7D56F4") // Purple
	secondaryColor = lipgloss.Color("#00D9FF") // Cyan
	successColor   = lipgloss.Color("#04B575") // Green
	errorColor     = lipgloss.Color("#FF5F87") // Pink/Red
	warningColor   = lipgloss.Color("#FFAF00") // Orange
	mutedColor     = lipgloss.Color("#626262") // Gray

	// Title styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1).
			MarginBottom(1).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1).
			PaddingLeft(1)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Icon styles
	checkmark = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true).
			SetString("✓")

	cross = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true).
		SetString("✗")

	arrow = lipgloss.NewStyle().
		Foreground(secondaryColor).
		SetString("→")

	dot = lipgloss.NewStyle().
		Foreground(mutedColor).
		SetString("•")

	// Item styles
	stepStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(lipgloss.Color("#FAFAFA"))

	// Box style for important info
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)
)

// PrintTitle prints a major title (for app name or major sections)
func PrintTitle(title string) {
	fmt.Println(titleStyle.Render("╭─ " + title + " ─╮"))
}

// PrintHeader prints a section header
func PrintHeader(title string) {
	fmt.Println(headerStyle.Render("\n▸ " + title))
}

// PrintStep prints a step with indentation
func PrintStep(step string) {
	fmt.Println(stepStyle.Render(arrow.String() + " " + step))
}

// PrintItem prints an item in a list
func PrintItem(item string) {
	fmt.Println(itemStyle.Render(dot.String() + " " + item))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(stepStyle.Render(checkmark.String() + " " + successStyle.Render(message)))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Println(stepStyle.Render(cross.String() + " " + errorStyle.Render(message)))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println(stepStyle.Render("⚠ " + warningStyle.Render(message)))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Println(stepStyle.Render(infoStyle.Render(message)))
}

// PrintBox prints text in a rounded box
func PrintBox(content string) {
	fmt.Println(boxStyle.Render(content))
}

// PrintList prints a titled list of items
func PrintList(title string, items []string) {
	fmt.Println(stepStyle.Render(title + ":"))
	for _, item := range items {
		PrintItem(item)
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	separator := lipgloss.NewStyle().
		Foreground(mutedColor).
		Render("─────────────────────────────────────────────")
	fmt.Println(separator)
}

// PrintKeyValue prints a key-value pair with nice formatting
func PrintKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)
	fmt.Println(stepStyle.Render(keyStyle.Render(key+":") + " " + value))
}

// Column widths: axis, rotation, slider, translation, slider
var widths = []int{6, 22, 8, 22, 8}

// columns pads every cell to its column width and joins them with sep.
// Cells that do not fit end in "..."; cells beyond the known columns are dropped.
func columns(cells []string, sep string) string {
	if len(cells) > len(widths) {
		cells = cells[:len(widths)]
	}
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if len(cell) > widths[i] {
			cell = cell[:widths[i]-3] + "..."
		}
		parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	return strings.Join(parts, sep)
}

// PrintTableRow prints a formatted table row with columns
func PrintTableRow(cells ...string) {
	if len(cells) == 0 {
		return
	}
	fmt.Println(stepStyle.Render(columns(cells, " │ ")))
}

// PrintTableHeader prints a table header followed by a rule under each column
func PrintTableHeader(headers ...string) {
	keyStyle := lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)
	fmt.Println(stepStyle.Render(keyStyle.Render(columns(headers, " │ "))))

	rules := make([]string, 0, len(headers))
	for i := range headers {
		if i >= len(widths) {
			break
		}
		rules = append(rules, strings.Repeat("─", widths[i]))
	}
	fmt.Println(stepStyle.Render(infoStyle.Render(strings.Join(rules, "─┼─"))))
}

// PrintCode writes source highlighted for the given chroma lexer (e.g. "yaml").
// Output falls back to plain text when NO_COLOR is set.
func PrintCode(source, lexer string) {
	if err := HighlightTo(os.Stdout, source, lexer); err != nil {
		fmt.Print(source)
	}
}

// HighlightTo writes source highlighted to w
func HighlightTo(w io.Writer, source, lexer string) error {
	if os.Getenv("NO_COLOR") != "" {
		_, err := io.WriteString(w, source)
		return err
	}
	return quick.Highlight(w, source, lexer, "terminal256", "monokai")
}
