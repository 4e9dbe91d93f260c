package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/catalog-editor/internal/editor"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab     = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("63"))
	priceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successToast  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("42"))
	errorToast    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("196"))
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

type formField int

const (
	fieldTitle formField = iota
	fieldPrice
	fieldImage
	fieldCategory
	fieldDescription
	fieldCount
)

func (f formField) label() string {
	switch f {
	case fieldTitle:
		return "Title *"
	case fieldPrice:
		return "Price *"
	case fieldImage:
		return "Image URL *"
	case fieldCategory:
		return "Category *"
	default:
		return "Description"
	}
}

type listingMsg struct {
	listing view.Listing
	err     error
}

type resultMsg struct{ res editor.Result }

type dismissNoticeMsg struct{ seq int }

type pendingConfirm struct {
	prompt string
	run    func(ctx context.Context, ctrl *editor.Controller) editor.Result
}

// EditorModel is the interactive catalog editor. It holds the edit session as
// a plain value and drops it whenever the user leaves the form.
type EditorModel struct {
	svc       service.ProductService
	ctrl      *editor.Controller
	noticeTTL time.Duration

	page    editor.Page
	query   view.Query
	listing view.Listing
	cursor  int

	searching bool
	session   editor.Session
	form      editor.Form
	field     formField

	confirm   *pendingConfirm
	notice    *editor.Notice
	noticeSeq int
	loadErr   error
	quitting  bool
}

func NewEditorModel(svc service.ProductService, noticeTTL time.Duration) EditorModel {
	if noticeTTL <= 0 {
		noticeTTL = editor.DefaultNoticeTTL
	}
	return EditorModel{
		svc:       svc,
		ctrl:      editor.NewController(svc, nil, nil, nil),
		noticeTTL: noticeTTL,
		page:      editor.PageProducts,
		session:   editor.NewSession(),
	}
}

// RunEditor starts the full-screen editor and blocks until the user quits.
func RunEditor(svc service.ProductService, noticeTTL time.Duration) error {
	_, err := tea.NewProgram(NewEditorModel(svc, noticeTTL), tea.WithAltScreen()).Run()
	return err
}

func (m EditorModel) Init() tea.Cmd { return m.reload() }

func (m EditorModel) reload() tea.Cmd {
	svc, q := m.svc, m.query
	return func() tea.Msg {
		listing, err := svc.Listing(context.Background(), q)
		return listingMsg{listing: listing, err: err}
	}
}

func (m EditorModel) act(fn func(ctx context.Context, ctrl *editor.Controller) editor.Result) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return resultMsg{res: fn(context.Background(), ctrl)}
	}
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listingMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.listing = msg.listing
		}
		if m.cursor >= len(m.listing.Cards) {
			m.cursor = max(len(m.listing.Cards)-1, 0)
		}
		return m, nil
	case resultMsg:
		return m.applyResult(msg.res)
	case dismissNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.page == editor.PageForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m EditorModel) applyResult(res editor.Result) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.reload()}
	if res.Notice != nil {
		m.noticeSeq++
		m.notice = res.Notice
		seq := m.noticeSeq
		cmds = append(cmds, tea.Tick(m.noticeTTL, func(time.Time) tea.Msg { return dismissNoticeMsg{seq: seq} }))
	}
	if res.Declined {
		return m, tea.Batch(cmds...)
	}
	if res.Page == editor.PageForm && m.page != editor.PageForm {
		m.field = fieldTitle
	}
	m.page = res.Page
	m.session = res.Session
	if res.Page == editor.PageForm {
		m.form = res.Form
	} else {
		m.form = editor.Form{}
		m.field = fieldTitle
	}
	return m, tea.Batch(cmds...)
}

func (m EditorModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		pending := m.confirm
		m.confirm = nil
		return m, m.act(func(ctx context.Context, ctrl *editor.Controller) editor.Result {
			return pending.run(ctx, ctrl.WithConfirmer(editor.Preconfirmed(true)))
		})
	case "n", "N", "esc":
		m.confirm = nil
	}
	return m, nil
}

func (m EditorModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.searching = false
			return m, nil
		case tea.KeyBackspace:
			if r := []rune(m.query.Search); len(r) > 0 {
				m.query = m.query.WithSearch(string(r[:len(r)-1]))
			}
			return m, m.reload()
		case tea.KeyRunes, tea.KeySpace:
			m.query = m.query.WithSearch(m.query.Search + string(msg.Runes))
			return m, m.reload()
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.listing.Cards)-1 {
			m.cursor++
		}
	case "/":
		m.searching = true
	case "c":
		m.query = m.query.WithCategory(nextCategory(m.listing.Categories, m.query.Category))
		m.cursor = 0
		return m, m.reload()
	case "s":
		m.query = m.query.WithSort(nextSort(m.query.Sort))
		return m, m.reload()
	case "a", "2":
		m.page = editor.PageForm
		m.session, m.form = m.ctrl.NewSession()
		m.field = fieldTitle
	case "e", "enter":
		if card, ok := m.selected(); ok {
			id := card.EditAction.TargetID
			return m, m.act(func(ctx context.Context, ctrl *editor.Controller) editor.Result {
				return ctrl.BeginEdit(ctx, id)
			})
		}
	case "d":
		if card, ok := m.selected(); ok {
			id := card.DeleteAction.TargetID
			m.confirm = &pendingConfirm{prompt: editor.PromptDelete, run: func(ctx context.Context, ctrl *editor.Controller) editor.Result {
				return ctrl.Delete(ctx, id)
			}}
		}
	case "X":
		m.confirm = &pendingConfirm{prompt: editor.PromptClearAll, run: func(ctx context.Context, ctrl *editor.Controller) editor.Result {
			return ctrl.ClearAll(ctx)
		}}
	}
	return m, nil
}

func (m EditorModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.page = editor.PageProducts
		m.session = editor.NewSession()
		m.form = editor.Form{}
		return m, m.reload()
	case "tab", "down":
		m.field = (m.field + 1) % fieldCount
		return m, nil
	case "shift+tab", "up":
		m.field = (m.field + fieldCount - 1) % fieldCount
		return m, nil
	case "enter", "ctrl+s":
		if msg.String() == "enter" && m.field < fieldDescription {
			m.field++
			return m, nil
		}
		sess, form := m.session, m.form
		return m, m.act(func(ctx context.Context, ctrl *editor.Controller) editor.Result {
			return ctrl.Submit(ctx, sess, form)
		})
	}

	value := m.fieldValue(m.field)
	switch msg.Type {
	case tea.KeyBackspace:
		if r := []rune(*value); len(r) > 0 {
			*value = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		*value += string(msg.Runes)
	}
	return m, nil
}

func (m *EditorModel) fieldValue(f formField) *string {
	switch f {
	case fieldTitle:
		return &m.form.Title
	case fieldPrice:
		return &m.form.Price
	case fieldImage:
		return &m.form.Image
	case fieldCategory:
		return &m.form.Category
	default:
		return &m.form.Description
	}
}

func (m EditorModel) selected() (view.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.listing.Cards) {
		return view.Card{}, false
	}
	return m.listing.Cards[m.cursor], true
}

// nextCategory cycles "" (all) through every known category and back.
func nextCategory(categories []string, current string) string {
	if current == "" {
		if len(categories) == 0 {
			return ""
		}
		return categories[0]
	}
	for i, c := range categories {
		if c == current && i+1 < len(categories) {
			return categories[i+1]
		}
	}
	return ""
}

func nextSort(current view.SortKey) view.SortKey {
	keys := view.SortKeys()
	for i, k := range keys {
		if k == current {
			return keys[(i+1)%len(keys)]
		}
	}
	return view.SortInsertion
}

func (m EditorModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Product Catalog"))
	b.WriteString("  ")
	products, add := tabStyle, tabStyle
	if m.page == editor.PageForm {
		add = activeTab
	} else {
		products = activeTab
	}
	b.WriteString(products.Render("1 Products") + add.Render("2 Add Product"))
	b.WriteString("\n\n")

	if m.notice != nil {
		style := successToast
		if m.notice.Kind == editor.NoticeError {
			style = errorToast
		}
		b.WriteString(style.Render(m.notice.Message) + "\n\n")
	}

	if m.page == editor.PageForm {
		m.viewForm(&b)
	} else {
		m.viewList(&b)
	}

	if m.confirm != nil {
		b.WriteString("\n" + promptStyle.Render(m.confirm.prompt+" (y/n)") + "\n")
	}
	return b.String()
}

func (m EditorModel) viewList(b *strings.Builder) {
	category := m.query.Category
	if category == "" {
		category = "All Categories"
	}
	search := m.query.Search
	if m.searching {
		search += "█"
	}
	fmt.Fprintf(b, "Search: %s   Category: %s   Sort: %s\n\n", search, category, m.query.Sort.Label())

	if m.loadErr != nil {
		b.WriteString(errorToast.Render(editor.MsgStoreFailure) + "\n")
	}
	if m.listing.Empty != nil {
		b.WriteString(titleStyle.Render(m.listing.Empty.Title) + "\n")
		b.WriteString(mutedStyle.Render(m.listing.Empty.Hint) + "\n")
	}
	for i, card := range m.listing.Cards {
		marker := "  "
		title := card.Title
		if i == m.cursor {
			marker = "> "
			title = selectedStyle.Render(title)
		}
		fmt.Fprintf(b, "%s%s  %s  %s\n", marker, title, priceStyle.Render(card.PriceLabel), categoryStyle.Render(card.Category))
		fmt.Fprintf(b, "    %s\n", mutedStyle.Render(card.Description))
	}
	fmt.Fprintf(b, "\n%s\n", mutedStyle.Render(fmt.Sprintf("%d of %d products", len(m.listing.Cards), m.listing.Total)))
	b.WriteString(mutedStyle.Render("j/k move  / search  c category  s sort  a add  e edit  d delete  X clear all  q quit"))
	b.WriteString("\n")
}

func (m EditorModel) viewForm(b *strings.Builder) {
	heading := "Add Product"
	if m.session.Editing() {
		heading = "Edit Product"
	}
	b.WriteString(titleStyle.Render(heading) + "\n\n")
	for f := fieldTitle; f < fieldCount; f++ {
		value := *m.fieldValue(f)
		label := f.label()
		if f == m.field {
			label = selectedStyle.Render(label)
			value += "█"
		}
		fmt.Fprintf(b, "%-14s %s\n", label, value)
	}
	fmt.Fprintf(b, "\n[%s]\n", m.session.SubmitLabel())
	b.WriteString(mutedStyle.Render("tab next field  enter submit on last field  ctrl+s submit  esc cancel"))
	b.WriteString("\n")
}
