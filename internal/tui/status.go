package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	statusErrorStyle = statusBarStyle.
				Foreground(lipgloss.Color("203"))

	statusSuccessStyle = statusBarStyle.
				Foreground(lipgloss.Color("114"))
)

func (a *App) statusBar() string {
	style := statusBarStyle
	switch a.statusKind {
	case StatusError:
		style = statusErrorStyle
	case StatusSuccess:
		style = statusSuccessStyle
	}

	left := a.status
	if left == "" {
		left = a.hints()
	}

	right := ""
	if a.screen == ScreenEntries {
		meta := a.controller.PageMeta()
		right = fmt.Sprintf("page %d/%d · %d entries", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
		if a.controller.UnreadOnly() {
			right = "unread · " + right
		}
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return style.Width(a.width).Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}

func (a *App) hints() string {
	switch a.screen {
	case ScreenFeeds:
		return "enter open · a add · r refresh · / search · S saved · * starred · q quit"
	case ScreenEntries:
		return "j/k move · n/p page · enter read · m read · s star · x dismiss · u unread · r refresh"
	case ScreenReader:
		return "esc back · o open link · s star · l listen · i reprocess · c chat"
	case ScreenSavedSearches:
		return "enter run · / new search · esc back"
	default:
		return ""
	}
}
