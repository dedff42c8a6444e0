package main

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))            // blue
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))            // red
)
