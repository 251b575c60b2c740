package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/davitt-io/granary/internal/record"
)

// TransfersModel shows outgoing stock split into partner handovers and
// internal relocations.
type TransfersModel struct {
	CommonModel
	recordService *record.Service

	partner    []*record.Record
	relocation []*record.Record

	loading bool
	err     error
}

func NewTransfersModel(recordSvc *record.Service) TransfersModel {
	return TransfersModel{
		recordService: recordSvc,
		loading:       true,
	}
}

func (m TransfersModel) Title() string     { return "Transfers" }
func (m TransfersModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m TransfersModel) Init() tea.Cmd {
	return m.loadTransfersCmd()
}

func (m TransfersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTransfersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.partner = msg.partner
		m.relocation = msg.relocation
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTransfersCmd()
		}
	}

	return m, nil
}

var (
	transferTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	transferDimStyle   = lipgloss.NewStyle().Faint(true)
)

func (m TransfersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transfers...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	partner := renderTransferSection(
		fmt.Sprintf("Partner Stock (%d)", len(m.partner)), m.partner)
	relocation := renderTransferSection(
		fmt.Sprintf("Relocations (%d)", len(m.relocation)), m.relocation)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, partner, "", relocation),
	)
}

func renderTransferSection(title string, recs []*record.Record) string {
	var sb strings.Builder

	sb.WriteString(transferTitleStyle.Render(title))
	sb.WriteString("\n")

	if len(recs) == 0 {
		sb.WriteString(transferDimStyle.Render("  (none)"))
		return sb.String()
	}

	for _, rec := range recs {
		route := rec.DestinationLocation
		if rec.SourceLocation != "" {
			route = rec.SourceLocation + " -> " + rec.DestinationLocation
		}

		sb.WriteString(fmt.Sprintf("  %s  %-40s  %s kg\n",
			FormatDate(rec.CreatedAt), route, FormatWeight(rec.WeightKg)))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Messages

type loadTransfersMsg struct {
	partner    []*record.Record
	relocation []*record.Record
	err        error
}

func (m TransfersModel) loadTransfersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		partner, relocation, err := m.recordService.PartitionTransfers(ctx)
		return loadTransfersMsg{partner: partner, relocation: relocation, err: err}
	}
}
