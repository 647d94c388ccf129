package browse

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/oneofjob/internal/filter"
	"github.com/amishk599/oneofjob/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(1, 0, 0, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// pickerItem is one toggleable filter value; param is its query parameter.
type pickerItem struct {
	param string
	value string
}

// pickerModel is the company/career filter panel. Selections are kept as
// query values, the same form the web listing uses.
type pickerModel struct {
	items  []pickerItem
	cursor int
	query  url.Values
}

func newPicker(companies []string, criteria filter.Criteria) pickerModel {
	items := make([]pickerItem, 0, len(companies)+len(model.CareerLevels))
	for _, c := range companies {
		items = append(items, pickerItem{param: filter.ParamCompany, value: c})
	}
	for _, l := range model.CareerLevels {
		items = append(items, pickerItem{param: filter.ParamCareer, value: string(l)})
	}
	return pickerModel{items: items, query: criteria.Values()}
}

func (p *pickerModel) move(delta int) {
	p.cursor = clamp(p.cursor+delta, 0, max(len(p.items)-1, 0))
}

func (p *pickerModel) toggle() {
	if len(p.items) == 0 {
		return
	}
	it := p.items[p.cursor]
	p.query = filter.Toggle(p.query, it.param, it.value)
}

func (p pickerModel) selected(it pickerItem) bool {
	return slices.Contains(p.query[it.param], it.value)
}

func (p pickerModel) criteria() filter.Criteria {
	return filter.ParseQuery(p.query)
}

func (p pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Filters"))
	b.WriteByte('\n')

	section := ""
	for i, it := range p.items {
		if it.param != section {
			section = it.param
			name := "Company"
			if section == filter.ParamCareer {
				name = "Career"
			}
			b.WriteString(pickerSectionStyle.Render(name) + "\n")
		}
		mark := "[ ]"
		if p.selected(it) {
			mark = "[x]"
		}
		label := fmt.Sprintf("%s %s", mark, it.value)
		if i == p.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(pickerItemStyle.Render(label) + "\n")
		}
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  space toggle  enter apply  esc cancel"))
	return b.String()
}
