package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobatlas/internal/model"
)

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	listBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type auditModel struct {
	category    string
	names       func(id string) string
	allPostings []model.ClassifiedPosting
	review      []model.ClassifiedPosting
	showReview  bool
	table       table.Model
	width       int
	height      int
	ready       bool

	view            viewState
	detail          model.ClassifiedPosting
	detailViewport  viewport.Model
	showDescription bool

	wantQuit bool
}

func newAuditModel(category string, postings []model.ClassifiedPosting, names func(string) string) auditModel {
	if names == nil {
		names = func(id string) string { return id }
	}
	var review []model.ClassifiedPosting
	for _, p := range postings {
		if NeedsReview(p) {
			review = append(review, p)
		}
	}

	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("39"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("24")).
		Bold(false)
	t.SetStyles(styles)

	m := auditModel{
		category:    category,
		names:       names,
		allPostings: postings,
		review:      review,
		table:       t,
	}
	m.resizeTable()
	return m
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeTable()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc":
		m.wantQuit = false
		return m, tea.Quit
	case "tab":
		m.showReview = !m.showReview
		m.table.SetCursor(0)
		m.resizeTable()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Navigation (up/down/pgup/pgdn/home/end) is handled by the table.
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detail.URL != "" {
			openURL(m.detail.URL)
		}
		return m, nil
	case "r":
		if m.detail.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m auditModel) visible() []model.ClassifiedPosting {
	if m.showReview {
		return m.review
	}
	return m.allPostings
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	postings := m.visible()
	i := m.table.Cursor()
	if i < 0 || i >= len(postings) {
		return m, nil
	}

	m.view = viewDetail
	m.detail = postings[i]
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

// resizeTable fits the columns to the terminal and reloads the visible rows.
// The title column takes whatever the fixed columns leave.
func (m *auditModel) resizeTable() {
	const (
		flagW   = 2
		agencyW = 10
		gradeW  = 6
		confW   = 5
		statusW = 13
	)
	titleW := max(m.width-(flagW+agencyW+gradeW+confW+statusW)-14, 20)

	m.table.SetColumns([]table.Column{
		{Title: "", Width: flagW},
		{Title: "Title", Width: titleW},
		{Title: "Agency", Width: agencyW},
		{Title: "Grade", Width: gradeW},
		{Title: "Conf", Width: confW},
		{Title: "Status", Width: statusW},
	})
	m.table.SetRows(postingRows(m.visible()))
	if m.height > 0 {
		// Tabs (1) + header border (2) + status bar (1) + margins.
		m.table.SetHeight(max(m.height-6, 3))
	}
}

func postingRows(postings []model.ClassifiedPosting) []table.Row {
	rows := make([]table.Row, 0, len(postings))
	for _, p := range postings {
		flag := ""
		if NeedsReview(p) {
			flag = "⚠"
		}
		rows = append(rows, table.Row{
			flag,
			p.Title,
			p.AgencyShort,
			p.Grade,
			fmt.Sprintf("%d", p.Confidence),
			p.Status,
		})
	}
	return rows
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	allTab := fmt.Sprintf("%s (%d)", m.names(m.category), len(m.allPostings))
	reviewTab := fmt.Sprintf("Needs Review (%d)", len(m.review))
	if m.showReview {
		allTab, reviewTab = inactiveTabStyle.Render(allTab), activeTabStyle.Render(reviewTab)
	} else {
		allTab, reviewTab = activeTabStyle.Render(allTab), inactiveTabStyle.Render(reviewTab)
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, allTab, " ", reviewTab)

	body := listBorderStyle.Render(m.table.View())

	statusText := fmt.Sprintf(" %d postings | %d flagged    Tab switch  ↑/↓ move  Enter detail  Esc back  q quit",
		len(m.allPostings), len(m.review))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return tabs + "\n" + body + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Classification Details")

	border := listBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detail.Description != "" {
		statusText = " o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Agency", agencyLabel(p.Posting))
	addField("Duty Station", strings.Trim(p.DutyStation+", "+p.DutyCountry, ", "))
	addField("Grade", p.Grade)
	addField("Posting ID", fmt.Sprintf("%d", p.ID))

	b.WriteByte('\n')
	addField("Category", fmt.Sprintf("%s (%d)", m.names(p.PrimaryCategory), p.Confidence))
	for _, s := range p.SecondaryCategories {
		addField("Also", fmt.Sprintf("%s (%d)", m.names(s.Category), s.Confidence))
	}
	addField("Seniority", p.SeniorityLevel)
	addField("Location Type", p.LocationType)
	addField("Status", fmt.Sprintf("%s, %s", p.Status, p.Urgency))
	if p.ApplyUntil != nil {
		addField("Apply Until", fmt.Sprintf("%s (%d days)", p.ApplyUntil.Format("2006-01-02"), p.DaysRemaining))
	}
	if p.PostingDate != nil {
		addField("Posted", p.PostingDate.Format("2006-01-02"))
	}
	if len(p.Labels) > 0 {
		addField("Labels", strings.Join(p.Labels, ", "))
	}

	b.WriteByte('\n')
	addField("URL", p.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if flags := flagSummary(p.Flags); flags != "" {
		b.WriteByte('\n')
		b.WriteString(flagStyle.Render("⚠ "+flags) + "\n")
	}

	b.WriteByte('\n')
	b.WriteString(divider("── Reasoning ") + "\n\n")
	if len(p.Reasoning) == 0 {
		b.WriteString(hintStyle.Render("  no reasoning recorded") + "\n")
	}
	for _, r := range p.Reasoning {
		b.WriteString("  • "+r + "\n")
	}

	if p.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the description") + "\n")
		}
	}

	return b.String()
}

func agencyLabel(p model.Posting) string {
	switch {
	case p.AgencyLong != "" && p.AgencyShort != "":
		return fmt.Sprintf("%s (%s)", p.AgencyLong, p.AgencyShort)
	case p.AgencyLong != "":
		return p.AgencyLong
	default:
		return p.AgencyShort
	}
}

func flagSummary(f model.ClassificationFlags) string {
	var parts []string
	if f.LowConfidence {
		parts = append(parts, "low confidence")
	}
	if f.Ambiguous {
		parts = append(parts, "ambiguous")
	}
	if len(f.EmergingTerms) > 0 {
		parts = append(parts, "emerging terms: "+strings.Join(f.EmergingTerms, ", "))
	}
	return strings.Join(parts, " · ")
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the audit view for one category. Tab switches between
// every posting and the ones flagged for review. names maps category ids to
// display names and may be nil.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunAuditTUI(category string, postings []model.ClassifiedPosting, names func(string) string) (bool, error) {
	m := newAuditModel(category, postings, names)

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
