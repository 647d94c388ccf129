// Package browse is the interactive terminal job browser.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/oneofjob/internal/display"
	"github.com/amishk599/oneofjob/internal/filter"
	"github.com/amishk599/oneofjob/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
	viewSearch
	viewFilters
)

var sortCycle = []filter.SortOption{filter.SortRecent, filter.SortDeadline, filter.SortCompany}

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	filterLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	expiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	openStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)
)

// Model is the browser state. Filters, sort and page are applied to the full
// listing on every change.
type Model struct {
	jobs      []model.Job
	companies []string
	criteria  filter.Criteria
	sortBy    filter.SortOption
	page      int
	pageSize  int
	visible   filter.Page[model.Job]
	cursor    int

	view      viewState
	list      viewport.Model
	detail    viewport.Model
	detailJob model.Job
	search    textinput.Model
	picker    pickerModel

	width  int
	height int
	ready  bool
	now    func() time.Time
}

// NewModel creates a browser over jobs. companies feeds the filter panel;
// when empty it is derived from jobs.
func NewModel(jobs []model.Job, companies []string, pageSize int) Model {
	if len(companies) == 0 {
		companies = filter.Companies(jobs)
	}
	ti := textinput.New()
	ti.Placeholder = "title or company"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	m := Model{
		jobs:      jobs,
		companies: companies,
		sortBy:    filter.SortRecent,
		page:      1,
		pageSize:  pageSize,
		search:    ti,
		now:       time.Now,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detail.Width = m.width - 4
			m.detail.Height = m.height - 4
			m.detail.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case viewDetail:
			return m.updateDetailView(msg)
		case viewSearch:
			return m.updateSearch(msg)
		case viewFilters:
			return m.updateFilters(msg)
		default:
			return m.updateListView(msg)
		}
	}

	return m, nil
}

func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.visible.Items)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.visible.Items)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
	case "n", "right":
		if m.visible.HasMore {
			m.page++
			m.cursor = 0
			m.refresh()
		}
	case "p", "left":
		if m.page > 1 {
			m.page--
			m.cursor = 0
			m.refresh()
		}
	case "s":
		m.sortBy = nextSort(m.sortBy)
		m.page, m.cursor = 1, 0
		m.refresh()
	case "c":
		m.criteria = filter.ParseQuery(filter.ClearAll())
		m.page, m.cursor = 1, 0
		m.refresh()
	case "/":
		m.view = viewSearch
		m.search.SetValue(m.criteria.Keyword)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "f":
		m.view = viewFilters
		m.picker = newPicker(m.companies, m.criteria)
	case "enter":
		return m.openDetailView()
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.search.Blur()
		m.view = viewList
		return m, nil
	case "enter":
		q := filter.SetKeyword(m.criteria.Values(), m.search.Value())
		m.criteria = filter.ParseQuery(q)
		m.search.Blur()
		m.view = viewList
		m.page, m.cursor = 1, 0
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateFilters(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.view = viewList
	case "up", "k":
		m.picker.move(-1)
	case "down", "j":
		m.picker.move(1)
	case " ", "space", "x":
		m.picker.toggle()
	case "enter":
		keyword := m.criteria.Keyword
		m.criteria = m.picker.criteria()
		m.criteria.Keyword = keyword
		m.view = viewList
		m.page, m.cursor = 1, 0
		m.refresh()
	}
	return m, nil
}

func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailJob.URL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.visible.Items) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = m.visible.Items[m.cursor]
	m.detail = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detail.SetContent(m.renderDetail())
	return m, nil
}

// refresh recomputes the visible page from the full listing.
func (m *Model) refresh() {
	matched := filter.Sort(filter.Apply(m.jobs, m.criteria), m.sortBy)
	m.visible = filter.Paginate(matched, m.page, m.pageSize)
	m.page = m.visible.Page
	m.cursor = clamp(m.cursor, 0, max(len(m.visible.Items)-1, 0))
	if m.ready {
		m.recalcContent()
		m.list.SetYOffset(0)
	}
}

func nextSort(cur filter.SortOption) filter.SortOption {
	for i, s := range sortCycle {
		if s == cur {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return filter.SortRecent
}

func (m *Model) ensureCursorVisible() {
	top := m.cursor * jobItemHeight
	bottom := top + jobItemHeight - 1

	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *Model) recalcLayout() {
	width := max(m.width-2, 20)
	// Header + filter line (2) + border (2) + status bar (1).
	height := max(m.height-5, 5)

	if !m.ready {
		m.list = viewport.New(width, height)
		m.ready = true
	} else {
		m.list.Width = width
		m.list.Height = height
	}
	m.recalcContent()
}

func (m *Model) recalcContent() {
	m.list.SetContent(m.renderJobs())
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.view {
	case viewDetail:
		return m.viewDetail()
	case viewFilters:
		return m.picker.View()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	pages := max((m.visible.Total+m.visible.PageSize-1)/m.visible.PageSize, 1)
	header := headerStyle.Render(fmt.Sprintf("Jobs (%d)  ·  sort: %s  ·  page %d/%d",
		m.visible.Total, m.sortBy, m.page, pages))

	filterLine := filterLineStyle.Render(describeCriteria(m.criteria))
	if m.view == viewSearch {
		filterLine = " " + m.search.View()
	}

	pane := borderStyle.Width(m.list.Width).Render(m.list.View())

	statusText := " ↑/↓ cursor  n/p page  s sort  / search  f filters  c clear  Enter detail  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + filterLine + "\n" + pane + "\n" + statusBar
}

func describeCriteria(c filter.Criteria) string {
	if c.IsZero() {
		return "전체 채용공고"
	}
	var parts []string
	if len(c.Companies) > 0 {
		parts = append(parts, "회사: "+strings.Join(c.Companies, ", "))
	}
	if len(c.Careers) > 0 {
		parts = append(parts, "경력: "+display.CareerList(c.Careers))
	}
	if c.Keyword != "" {
		parts = append(parts, fmt.Sprintf("검색어: %q", c.Keyword))
	}
	return strings.Join(parts, " / ")
}

func (m Model) renderJobs() string {
	if len(m.visible.Items) == 0 {
		return "  조건에 맞는 채용공고가 없습니다."
	}

	now := m.now()
	titleWidth := max(m.list.Width-4, 10)

	var b strings.Builder
	for i, j := range m.visible.Items {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if i == m.cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(display.Truncate(j.Title, titleWidth)))
		b.WriteByte('\n')

		label := display.DeadlineLabel(j, now)
		if display.IsExpired(j, now) {
			label = expiredStyle.Render(label)
		} else {
			label = openStyle.Render(label)
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · ", j.Company, display.CareerList(j.Careers))))
		b.WriteString(label)
		b.WriteByte('\n')

		if i < len(m.visible.Items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) viewDetail() string {
	title := detailTitleStyle.Render("채용공고 상세")
	content := borderStyle.Width(m.width - 2).Render(m.detail.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m Model) renderDetail() string {
	v := display.NewJobView(m.detailJob, m.now())
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", v.Title)
	addField("Company", v.Company)
	addField("Career", display.CareerList(v.Careers))
	addField("Employment", string(v.EmploymentType))
	addField("Job ID", v.ID)

	b.WriteByte('\n')
	addField("Period", v.DateRange)
	addField("Deadline", v.Deadline)
	addField("Posted", v.Posted)

	b.WriteByte('\n')
	addField("URL", v.URL)
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
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

// Run launches the full-screen browser over jobs.
func Run(jobs []model.Job, companies []string, pageSize int) error {
	p := tea.NewProgram(NewModel(jobs, companies, pageSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
