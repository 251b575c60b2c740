package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/davitt-io/granary/cmd/tui/internal/view"
	"github.com/davitt-io/granary/internal/config"
	"github.com/davitt-io/granary/internal/database"
	"github.com/davitt-io/granary/internal/export"
	"github.com/davitt-io/granary/internal/naming"
	namingStore "github.com/davitt-io/granary/internal/naming/store"
	"github.com/davitt-io/granary/internal/record"
	recordStore "github.com/davitt-io/granary/internal/record/store"
)

type model struct {
	recordService *record.Service
	namingService *naming.Service
	exportService *export.Service

	currentView View

	listView      view.ListModel
	transfersView view.TransfersModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewList      View = 1
	ViewTransfers View = 2
	ViewExport    View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	recordSvc := record.NewService(recordStore.New(db), record.NewEngine())
	namingSvc := naming.NewService(namingStore.New(db))
	exportSvc := export.NewService(recordSvc)

	return model{
		recordService: recordSvc,
		namingService: namingSvc,
		exportService: exportSvc,
		currentView:   ViewMenu,
		listView:      view.NewListModel(recordSvc, namingSvc),
		transfersView: view.NewTransfersModel(recordSvc),
		exportView:    view.NewExportModel(exportSvc, recordSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.recordService, m.namingService)

				return m, m.listView.Init()
			case "2":
				m.currentView = ViewTransfers
				m.transfersView = view.NewTransfersModel(m.recordService)

				return m, m.transfersView.Init()
			case "3":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService, m.recordService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewTransfers:
		var newModel tea.Model
		newModel, cmd = m.transfersView.Update(msg)
		m.transfersView = newModel.(view.TransfersModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Granary TUI\n\n" +
				"1. Stock Records\n" +
				"2. Transfers\n" +
				"3. Export Records\n\n" +
				"q. Quit",
		)
	case ViewList:
		return m.listView.View()
	case ViewTransfers:
		return m.transfersView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
