package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/davitt-io/granary/internal/naming"
	"github.com/davitt-io/granary/internal/record"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateSearch
	listStateEdit
)

var (
	statusCycle = []record.Status{"", record.StatusPending, record.StatusCompleted, record.StatusFailed}
	kindCycle   = []record.Kind{"", record.KindReceipt, record.KindSale, record.KindTransfer, record.KindBill}
	rangeCycle  = []record.TimeRange{"", record.TimeRangeDay, record.TimeRangeWeek, record.TimeRangeMonth, record.TimeRangeYear}
	sortCycle   = []record.SortKey{record.SortDateDesc, record.SortDateAsc, record.SortAmountDesc, record.SortAmountAsc}
)

type ListModel struct {
	CommonModel
	recordService *record.Service
	namingService *naming.Service

	state listState
	table table.Model
	recs  []*record.Record

	form        *huh.Form
	searchInput textinput.Model

	statusIdx int
	kindIdx   int
	rangeIdx  int
	sortIdx   int
	search    string

	loading bool
	err     error
	status  string

	// Form bindings
	formSupplier string
	formNotes    string
}

func NewListModel(recordSvc *record.Service, namingSvc *naming.Service) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Kind", Width: 9},
		{Title: "Operation", Width: 15},
		{Title: "Status", Width: 10},
		{Title: "Name", Width: 28},
		{Title: "Weight", Width: 9},
		{Title: "Amount", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 60
	si.Width = 30
	si.Prompt = "/ "

	return ListModel{
		recordService: recordSvc,
		namingService: namingSvc,
		table:         t,
		searchInput:   si,
	}
}

func (m ListModel) Title() string { return "Stock Records" }
func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateEdit:
		return "Navigate form | Esc: cancel"
	case listStateSearch:
		return "Enter: apply | Esc: cancel"
	}
	return "Esc: back | e: edit | s: status | k: kind | t: time range | o: sort | /: search | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadRecordsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.recs = msg.recs
		m.err = nil
		m.refreshTable()
		return m, nil

	case listSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = "Saved"
		}
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadRecordsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateSearch:
		return m.updateSearch(msg)
	case listStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadRecordsCmd()
		case "e":
			return m.enterEditMode()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusCycle)
			return m, m.loadRecordsCmd()
		case "k":
			m.kindIdx = (m.kindIdx + 1) % len(kindCycle)
			return m, m.loadRecordsCmd()
		case "t":
			m.rangeIdx = (m.rangeIdx + 1) % len(rangeCycle)
			return m, m.loadRecordsCmd()
		case "o":
			m.sortIdx = (m.sortIdx + 1) % len(sortCycle)
			return m, m.loadRecordsCmd()
		case "/":
			m.state = listStateSearch
			m.searchInput.SetValue(m.search)
			m.searchInput.Focus()
			m.table.Blur()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ListModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.state = listStateBrowse
			m.searchInput.Blur()
			m.table.Focus()
			return m, nil
		case tea.KeyEnter:
			m.search = strings.TrimSpace(m.searchInput.Value())
			m.state = listStateBrowse
			m.searchInput.Blur()
			m.table.Focus()
			return m, m.loadRecordsCmd()
		}
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.recs) {
		return m, nil
	}

	rec := m.recs[idx]
	m.formSupplier = rec.SupplierName
	m.formNotes = rec.Notes

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("supplier").
				Title("Supplier").
				Value(&m.formSupplier).
				Validate(func(s string) error {
					if rec.Kind == record.KindReceipt && strings.TrimSpace(s) == "" {
						return fmt.Errorf("supplier cannot be empty for receipts")
					}
					return nil
				}),

			huh.NewInput().
				Key("notes").
				Title("Notes").
				Value(&m.formNotes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()
	return m, m.form.Init()
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading records...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [k] Kind: %s | [t] Range: %s | [o] Sort: %s",
		activeStyle(cycleLabel(string(statusCycle[m.statusIdx]))),
		activeStyle(cycleLabel(string(kindCycle[m.kindIdx]))),
		activeStyle(cycleLabel(string(rangeCycle[m.rangeIdx]))),
		activeStyle(string(sortCycle[m.sortIdx])),
	)

	if m.search != "" {
		header += fmt.Sprintf(" | Search: %s", activeStyle(m.search))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateSearch {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.searchInput.View())
	}

	if m.state == listStateEdit && m.form != nil {
		idx := m.table.Cursor()
		raw := ""
		if idx >= 0 && idx < len(m.recs) {
			raw = m.recs[idx].RawSupplier
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(
				fmt.Sprintf("Edit Record\n\nSheet name: %s\n\n%s", raw, m.form.View()),
			)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func cycleLabel(s string) string {
	if s == "" {
		return "All"
	}

	return s
}

// displayName picks the counterparty shown in the table: buyer for
// sales, route for transfers, supplier otherwise.
func displayName(rec *record.Record) string {
	switch rec.Kind {
	case record.KindSale:
		return rec.BuyerName
	case record.KindTransfer:
		return fmt.Sprintf("%s -> %s", rec.SourceLocation, rec.DestinationLocation)
	default:
		if rec.SupplierName != "" {
			return rec.SupplierName
		}

		return rec.Name
	}
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.recs))
	for _, rec := range m.recs {
		rows = append(rows, table.Row{
			FormatDate(rec.CreatedAt),
			string(rec.Kind),
			string(record.Classify(rec)),
			string(rec.Status),
			displayName(rec),
			FormatWeight(rec.WeightKg),
			FormatAmount(rec.Amount),
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	recs []*record.Record
	err  error
}

func (m ListModel) loadRecordsCmd() tea.Cmd {
	filter := record.ListFilter{}

	if s := statusCycle[m.statusIdx]; s != "" {
		filter.Status = new(s)
	}

	if k := kindCycle[m.kindIdx]; k != "" {
		filter.Kind = new(k)
	}

	criteria := record.Criteria{
		Search:    m.search,
		TimeRange: rangeCycle[m.rangeIdx],
		Sort:      sortCycle[m.sortIdx],
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		recs, err := m.recordService.Query(ctx, filter, criteria)
		return loadListMsg{recs: recs, err: err}
	}
}

type listSaveMsg struct {
	err error
}

func (m ListModel) saveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.recs) {
		return nil
	}

	rec := m.recs[idx]
	supplier := m.formSupplier
	notes := m.formNotes

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		renamed := supplier != rec.SupplierName

		rec.SupplierName = supplier
		rec.Notes = notes

		if err := m.recordService.Update(ctx, rec); err != nil {
			return listSaveMsg{err: err}
		}

		// A corrected supplier name is worth remembering for the next
		// sheet carrying the same raw spelling.
		if renamed && rec.RawSupplier != "" && supplier != "" {
			if err := m.namingService.Learn(ctx, rec.RawSupplier, supplier); err != nil {
				return listSaveMsg{err: err}
			}
		}

		return listSaveMsg{}
	}
}
