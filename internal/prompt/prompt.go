// Package prompt collects optional report filters from the user with a small
// terminal form.
package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/internal/validator"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// Field identifies a form input
type Field int

const (
	FieldRegion Field = iota
	FieldMinAmount
	FieldMaxAmount
	fieldCount
)

var fieldLabels = [fieldCount]string{"Region", "Min amount", "Max amount"}

// Model is the bubbletea model for the filter form
type Model struct {
	inputs  [fieldCount]textinput.Model
	focused Field
	ranges  validator.Ranges

	err       string
	filters   validator.FilterOptions
	submitted bool
	skipped   bool
	cancelled bool
}

// NewModel creates the form, using ranges for placeholders
func NewModel(ranges validator.Ranges) Model {
	m := Model{ranges: ranges}

	for i := range m.inputs {
		input := textinput.New()
		input.CharLimit = 32
		input.Width = 30
		input.Prompt = ""
		m.inputs[i] = input
	}

	m.inputs[FieldRegion].Placeholder = "all regions"
	if len(ranges.Regions) > 0 {
		m.inputs[FieldRegion].Placeholder = strings.Join(ranges.Regions, ", ")
	}
	m.inputs[FieldMinAmount].Placeholder = "no minimum"
	m.inputs[FieldMaxAmount].Placeholder = "no maximum"
	if ranges.Count > 0 {
		m.inputs[FieldMinAmount].Placeholder = "lowest " + ranges.MinAmount.StringFixed(2)
		m.inputs[FieldMaxAmount].Placeholder = "highest " + ranges.MaxAmount.StringFixed(2)
	}

	m.inputs[FieldRegion].Focus()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c":
		m.cancelled = true
		return m, tea.Quit

	case "esc":
		m.skipped = true
		m.filters = validator.FilterOptions{}
		return m, tea.Quit

	case "tab", "down":
		m.setFocus((m.focused + 1) % fieldCount)
		return m, nil

	case "shift+tab", "up":
		m.setFocus((m.focused + fieldCount - 1) % fieldCount)
		return m, nil

	case "enter":
		if m.focused < FieldMaxAmount {
			m.setFocus(m.focused + 1)
			return m, nil
		}
		filters, err := m.collect()
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		m.filters = filters
		m.submitted = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(keyMsg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	if m.submitted || m.skipped || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Report filters"))
	b.WriteString("\n")

	if m.ranges.Count > 0 {
		b.WriteString(HintStyle.Render(fmt.Sprintf("%d valid records, amounts %s to %s",
			m.ranges.Count, m.ranges.MinAmount.StringFixed(2), m.ranges.MaxAmount.StringFixed(2))))
		b.WriteString("\n\n")
	}

	for i := range m.inputs {
		label := LabelStyle.Render(fieldLabels[i])
		if Field(i) == m.focused {
			label = FocusedLabelStyle.Render(fieldLabels[i])
		}
		b.WriteString(label)
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HintStyle.Render("tab: next field  enter: confirm  esc: skip filters"))

	return BoxStyle.Render(b.String()) + "\n"
}

// Filters returns the options collected by the form
func (m Model) Filters() validator.FilterOptions {
	return m.filters
}

// Submitted reports whether the form was confirmed with enter
func (m Model) Submitted() bool {
	return m.submitted
}

// Skipped reports whether the user chose to run without filters
func (m Model) Skipped() bool {
	return m.skipped
}

// Cancelled reports whether the user aborted with ctrl+c
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) setFocus(field Field) {
	m.inputs[m.focused].Blur()
	m.focused = field
	m.inputs[m.focused].Focus()
}

func (m Model) collect() (validator.FilterOptions, error) {
	var opts validator.FilterOptions
	opts.Region = m.matchRegion(m.inputs[FieldRegion].Value())

	minAmount, err := ParseAmount(m.inputs[FieldMinAmount].Value())
	if err != nil {
		return opts, fmt.Errorf("min amount: %w", err)
	}
	maxAmount, err := ParseAmount(m.inputs[FieldMaxAmount].Value())
	if err != nil {
		return opts, fmt.Errorf("max amount: %w", err)
	}
	opts.MinAmount = minAmount
	opts.MaxAmount = maxAmount

	return opts, nil
}

// matchRegion maps input onto a known region ignoring case. Unknown regions
// are kept as typed.
func (m Model) matchRegion(input string) string {
	region := strings.TrimSpace(input)
	for _, known := range m.ranges.Regions {
		if strings.EqualFold(known, region) {
			return known
		}
	}
	return region
}

// ParseAmount parses an optional amount. Blank input yields nil.
func ParseAmount(input string) (*decimal.Decimal, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	amount, err := models.ParseDecimalFromString(input)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", input)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%q must not be negative", input)
	}
	return &amount, nil
}

// Run shows the form on out, reading keys from in, and returns the chosen
// filters. Skipping the form returns empty options.
func Run(ctx context.Context, in io.Reader, out io.Writer, ranges validator.Ranges) (validator.FilterOptions, error) {
	log := logger.WithComponent("prompt")

	program := tea.NewProgram(
		NewModel(ranges),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return validator.FilterOptions{}, errors.InternalError(errors.CodeCancelled, "filter prompt", ctxErr)
	}
	if err != nil {
		return validator.FilterOptions{}, errors.InternalError(errors.CodeUnexpectedError, "filter prompt", err)
	}

	m, ok := final.(Model)
	if !ok {
		return validator.FilterOptions{}, errors.InternalError(errors.CodeUnexpectedError, "filter prompt",
			fmt.Errorf("unexpected model type %T", final))
	}
	if m.Cancelled() {
		return validator.FilterOptions{}, errors.InternalError(errors.CodeCancelled, "filter prompt",
			fmt.Errorf("interrupted by user"))
	}

	log.WithFields(logger.Fields{
		"filters": m.Filters().String(),
		"skipped": m.Skipped(),
	}).Debug("Filters collected")

	return m.Filters(), nil
}
