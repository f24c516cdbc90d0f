package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/gate"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/sbenjam1n/clientintake/internal/transport"
	"github.com/sbenjam1n/clientintake/internal/validator"
	"github.com/spf13/cobra"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in and submit the contract from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigPath, _ := cmd.Flags().GetString("signature")
		submitURL, _ := cmd.Flags().GetString("submit-url")
		if submitURL == "" {
			submitURL = cfg.SubmitURL
		}
		if submitURL == "" {
			return fmt.Errorf("no submit endpoint\nSet INTAKE_SUBMIT_URL or pass --submit-url")
		}

		schema, err := loadSchema()
		if err != nil {
			return err
		}
		sig, err := loadSignature(sigPath)
		if err != nil {
			return err
		}

		var notifier submission.Notifier
		if cfg.NotifyEmail != "" {
			notifier = transport.NewFormSubmit(cfg.NotifyURL, cfg.NotifyEmail)
		}
		// The TUI owns the terminal; keep log lines out of it.
		quiet := slog.New(slog.DiscardHandler)
		sub := submission.New(transport.NewHTTP(submitURL), notifier, submission.Config{
			Redirect:      cfg.ThankYouURL,
			NotifyTimeout: cfg.NotifyTimeout,
			Logger:        quiet,
		})

		m := newFillModel(schema, form.NewFieldValues(time.Now()), sig, sub)
		p := tea.NewProgram(m, tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return err
		}
		if fm, ok := final.(fillModel); ok && fm.receipt != nil {
			fmt.Printf("Submitted %s. Continue at %s\n", fm.receipt.ID, fm.receipt.Redirect)
		}
		return nil
	},
}

// --- Styles ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("236")).Foreground(lipgloss.Color("15"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// --- Inputs ---

type inputKind int

const (
	inputText inputKind = iota
	inputChoice
	inputCheckbox
)

type inputField struct {
	id   string
	kind inputKind
}

func sectionInputs(sec form.SectionSpec) []inputField {
	var out []inputField
	for _, id := range sec.RequiredFields {
		out = append(out, inputField{id: id, kind: inputText})
	}
	for _, id := range sec.RequiredRadios {
		out = append(out, inputField{id: id, kind: inputChoice})
	}
	for _, id := range sec.RequiredCheckboxes {
		out = append(out, inputField{id: id, kind: inputCheckbox})
	}
	return out
}

// --- Model ---

type submitDoneMsg struct {
	receipt *submission.Receipt
	err     error
}

type fillModel struct {
	schema    *form.Schema
	fields    form.FieldValues
	sig       form.Signature
	state     gate.State
	submitter *submission.Submitter
	session   string

	section    int
	cursor     int
	editing    bool
	buffer     string
	notice     string
	submitting bool
	receipt    *submission.Receipt
	width      int
	height     int
}

func newFillModel(schema *form.Schema, fields form.FieldValues, sig form.Signature, sub *submission.Submitter) fillModel {
	st := gate.Recompute(schema, fields, sig)
	return fillModel{
		schema:    schema,
		fields:    fields,
		sig:       sig,
		state:     st,
		submitter: sub,
		session:   uuid.NewString(),
		section:   max(st.Active, 0),
		width:     80,
		height:    24,
	}
}

func (m fillModel) Init() tea.Cmd {
	return nil
}

func (m fillModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}

		inputs := m.inputs()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(inputs)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "tab", "n":
			m.goTo(m.section + 1)
		case "shift+tab", "p":
			m.goTo(m.section - 1)

		case "enter", " ":
			if m.receipt != nil || m.cursor >= len(inputs) {
				break
			}
			in := inputs[m.cursor]
			if in.kind == inputCheckbox {
				m.apply(m.fields.WithChecked(in.id, !m.fields.Checked(in.id)))
			} else {
				m.editing = true
				m.buffer = m.fields.Text(in.id)
			}

		case "s":
			return m.startSubmit()
		}
	}
	return m, nil
}

func (m fillModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		id := m.inputs()[m.cursor].id
		m.editing = false
		m.apply(m.fields.WithText(id, m.buffer))
		m.buffer = ""
	case tea.KeyEsc:
		m.editing = false
		m.buffer = ""
	case tea.KeyBackspace:
		if r := []rune(m.buffer); len(r) > 0 {
			m.buffer = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.buffer += " "
	case tea.KeyRunes:
		m.buffer += string(msg.Runes)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

// apply stores new values and re-derives gating. When the visible section
// becomes complete the view follows the newly unlocked section; when it
// becomes locked again the view falls back to the active one.
func (m *fillModel) apply(fields form.FieldValues) {
	prev := m.state
	m.fields = fields
	m.state = gate.Recompute(m.schema, m.fields, m.sig)
	m.notice = ""

	if unlocked := gate.JustUnlocked(prev, m.state); len(unlocked) > 0 {
		names := make([]string, len(unlocked))
		for i, idx := range unlocked {
			names[i] = m.schema.Sections[idx].DisplayName
		}
		m.notice = "Unlocked: " + strings.Join(names, ", ")
	}

	cur := m.state.Sections[m.section]
	switch {
	case cur.Locked:
		m.section = m.state.Active
		m.cursor = 0
	case cur.Satisfied && !prev.Sections[m.section].Satisfied && m.state.Active > m.section:
		m.section = m.state.Active
		m.cursor = 0
	}
}

func (m *fillModel) goTo(i int) {
	if i < 0 || i >= len(m.schema.Sections) {
		return
	}
	if m.state.Sections[i].Locked {
		m.notice = fmt.Sprintf("Complete %s first", m.schema.Sections[i-1].DisplayName)
		return
	}
	m.section = i
	m.cursor = 0
	m.notice = ""
}

func (m fillModel) startSubmit() (tea.Model, tea.Cmd) {
	if m.submitting || m.receipt != nil {
		return m, nil
	}
	if d := gate.CanSubmit(m.state, m.schema, m.sig); !d.Allowed {
		m.showBlockers(d)
		return m, nil
	}

	m.submitting = true
	m.notice = "Submitting... Please wait while we save your contract."
	sub, key, schema, fields, sig := m.submitter, m.session, m.schema, m.fields, m.sig
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r, err := sub.Submit(ctx, key, schema, fields, sig)
		return submitDoneMsg{receipt: r, err: err}
	}
}

func (m fillModel) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	var pre *submission.PreconditionError
	switch {
	case msg.err == nil:
		m.receipt = msg.receipt
		m.notice = "Contract submitted. Press q to exit."
	case errors.As(msg.err, &pre):
		m.showBlockers(pre.Decision)
	case errors.Is(msg.err, submission.ErrInFlight):
		m.notice = "Submitting..."
	default:
		m.notice = "Submission failed. Please check your connection and try again."
	}
	return m, nil
}

func (m *fillModel) showBlockers(d gate.Decision) {
	if m.onlySignatureMissing(d) {
		m.notice = "Please provide your signature before submitting."
	} else {
		m.notice = "Please complete all required sections before submitting: " + strings.Join(d.Blockers, ", ")
	}
	if d.FirstOffending >= 0 {
		m.section = d.FirstOffending
		m.cursor = 0
	}
}

// onlySignatureMissing reports whether the signature is the one thing keeping
// the form from being submitted.
func (m fillModel) onlySignatureMissing(d gate.Decision) bool {
	signOff := m.schema.SignOff()
	if d.FirstOffending != signOff || signOff < 0 {
		return false
	}
	ss := m.state.Sections[signOff]
	if ss.Locked {
		return false
	}
	for _, tag := range ss.Fields {
		if !tag.Valid && tag.FieldID != validator.SignatureFieldID {
			return false
		}
	}
	return true
}

func (m fillModel) inputs() []inputField {
	return sectionInputs(m.schema.Sections[m.section])
}

// --- View ---

func (m fillModel) View() string {
	var b strings.Builder
	view := gate.Project(m.state, m.schema, m.sig)

	b.WriteString(titleStyle.Render("Client Contract") + "  " + m.progressBar(view) + "\n")
	b.WriteString(strings.Repeat("─", min(m.width, 80)) + "\n")

	sec := m.schema.Sections[m.section]
	ss := m.state.Sections[m.section]
	heading := fmt.Sprintf("%d/%d %s", m.section+1, len(m.schema.Sections), sec.DisplayName)
	b.WriteString(headerStyle.Render(heading) + "\n")
	if ss.Banner == validator.BannerComplete {
		b.WriteString(okStyle.Render(bannerText(ss.Banner)) + "\n\n")
	} else {
		b.WriteString(dimStyle.Render(bannerText(ss.Banner)) + "\n\n")
	}

	valid := make(map[string]bool, len(ss.Fields))
	for _, tag := range ss.Fields {
		valid[tag.FieldID] = tag.Valid
	}
	for i, in := range m.inputs() {
		line := m.renderInput(in, valid[in.id])
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	if sec.RequiresSignature {
		if m.sig == nil || m.sig.IsEmpty() {
			b.WriteString(warnStyle.Render("  signature: not provided (restart with --signature <png>)") + "\n")
		} else {
			b.WriteString(okStyle.Render("  signature: provided") + "\n")
		}
		b.WriteString("\n")
		for _, e := range gate.Summarize(m.fields) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %-6s %s", e.Label+":", e.Value)) + "\n")
		}
	}

	if view.SubmitEnabled && m.receipt == nil {
		b.WriteString("\n" + okStyle.Render("Ready to Submit! All sections complete.") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + warnStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k:field  enter:edit/toggle  tab/shift+tab:section  s:submit  q:quit"))
	return b.String()
}

func (m fillModel) renderInput(in inputField, valid bool) string {
	mark := warnStyle.Render("•")
	if valid {
		mark = okStyle.Render("✓")
	}
	if m.editing && m.inputs()[m.cursor].id == in.id {
		return fmt.Sprintf("%s %-16s %s█", mark, in.id, m.buffer)
	}
	switch in.kind {
	case inputCheckbox:
		box := "[ ]"
		if m.fields.Checked(in.id) {
			box = "[x]"
		}
		return fmt.Sprintf("%s %-16s %s", mark, in.id, box)
	default:
		return fmt.Sprintf("%s %-16s %s", mark, in.id, m.fields.Text(in.id))
	}
}

func (m fillModel) progressBar(view gate.ProgressView) string {
	var b strings.Builder
	for i, sv := range view.PerSection {
		cell := "□"
		switch sv.Status {
		case gate.StatusComplete:
			cell = okStyle.Render("■")
		case gate.StatusLocked:
			cell = dimStyle.Render("·")
		}
		if i == m.section {
			cell = "[" + cell + "]"
		}
		b.WriteString(cell)
	}
	return fmt.Sprintf("%s %d%%", b.String(), view.CompletionPercent)
}

func init() {
	fillCmd.Flags().String("signature", "", "PNG file holding the drawn signature")
	fillCmd.Flags().String("submit-url", "", "Endpoint receiving the form post (default INTAKE_SUBMIT_URL)")
}
