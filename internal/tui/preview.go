package tui

import (
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/render"
	"github.com/Zuo-Peng/rec2csv/internal/search"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the record preview async.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	key := r.Key()
	return func() tea.Msg {
		content, err := render.RenderRecord(db, key, render.Options{
			Width: width,
			Query: query,
		})
		return previewRenderedMsg{key: key, content: content, err: err}
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
