package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))

	helpCommandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("14"))

	helpCommentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

type helpExample struct {
	title    string
	commands []string
}

type helpFlag struct {
	flag string
	desc string
}

// renderExamples renders titled command examples followed by an optional flag table
func renderExamples(examples []helpExample, flagTitle string, flags []helpFlag) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(helpTitleStyle.Render("Examples"))
	b.WriteString("\n\n")

	for _, ex := range examples {
		b.WriteString(helpSectionStyle.Render(ex.title))
		b.WriteString("\n")
		for i, c := range ex.commands {
			indent := "  "
			if i > 0 {
				indent = "    "
			}
			b.WriteString(indent + helpCommandStyle.Render(c))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(flags) == 0 {
		return b.String()
	}

	b.WriteString(helpSectionStyle.Render(flagTitle))
	b.WriteString("\n")

	maxWidth := 0
	for _, f := range flags {
		if len(f.flag) > maxWidth {
			maxWidth = len(f.flag)
		}
	}
	for _, f := range flags {
		padding := strings.Repeat(" ", maxWidth-len(f.flag)+2)
		b.WriteString("  " + helpFlagStyle.Render(f.flag) + padding + helpCommentStyle.Render(f.desc))
		b.WriteString("\n")
	}

	return b.String()
}

// renderComposeHelp renders the help text for the compose command with lipgloss styling
func renderComposeHelp() string {
	return renderExamples([]helpExample{
		{"Translate by 10 along x", []string{"rigidreg compose -t 10,0,0"}},
		{"Rotate 12.5 degrees about z around the image center", []string{
			"rigidreg compose --center 0,0,149 -r 0,0,12.5 -o manual.mat",
		}},
		{"Angles in radians, 3 decimals", []string{"rigidreg compose -u radians -r 0.1,0,0 --precision default"}},
	}, "Conventions:", []helpFlag{
		{"M", "T(t) * T(C) * Rz * Rx * Ry * T(-C)"},
		{"order", "rotation about Y first, then X, then Z"},
		{"file", "4 rows of 4 numbers"},
	})
}

// renderSessionHelp renders the help text for the session command with lipgloss styling
func renderSessionHelp() string {
	return renderExamples([]helpExample{
		{"Replay a session", []string{"rigidreg session example/session.yaml"}},
		{"Only print the final state", []string{"rigidreg session -q example/session.yaml"}},
		{"List the steps without running them", []string{"rigidreg session --dry-run example/session.yaml"}},
	}, "Session actions:", []helpFlag{
		{"rotate {axis, value}", "Type an angle into a rotation field (current unit)"},
		{"translate {axis, value}", "Type a translation"},
		{"slider {kind, axis, value}", "Move a rotation (degrees) or translation slider"},
		{"nudge {kind, axis, steps}", "Click a spin box arrow"},
		{"center [x, y, z]", "Change the rotation center"},
		{"unit degrees|radians|toggle", "Change the angle display unit"},
		{"load_matrix FILE", "Load a matrix file"},
		{"load_elastix FILE", "Load elastix EulerTransform parameters"},
		{"reset", "Restore the initial matrix"},
		{"save {file, precision}", "Save the current matrix"},
		{"print", "Show parameters and matrix"},
		{"cancel", "Close without applying, the image gets its initial transform back"},
	})
}
