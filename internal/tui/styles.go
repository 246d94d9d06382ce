// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57"))
)
