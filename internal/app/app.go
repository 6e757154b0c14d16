package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/dashboard"
	"github.com/nhle/bod-watchlist/internal/intake"
	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/session"
	appsync "github.com/nhle/bod-watchlist/internal/sync"
	"github.com/nhle/bod-watchlist/internal/ui"
	"github.com/nhle/bod-watchlist/internal/ui/command"
	dashview "github.com/nhle/bod-watchlist/internal/ui/dashboard"
	"github.com/nhle/bod-watchlist/internal/ui/detail"
	helpview "github.com/nhle/bod-watchlist/internal/ui/help"
	intakeview "github.com/nhle/bod-watchlist/internal/ui/intake"
	"github.com/nhle/bod-watchlist/internal/ui/login"
	"github.com/nhle/bod-watchlist/internal/ui/mandateform"
	"github.com/nhle/bod-watchlist/internal/ui/notifications"
	"github.com/nhle/bod-watchlist/internal/ui/tasklist"
)

// Status bar messages.
const (
	MsgSessionExpired  = "Sesi berakhir, silakan login kembali."
	MsgSecretaryOnly   = "Hanya Sekretaris yang dapat membuka menu ini."
	MsgMandateCreated  = "Mandat baru tersimpan."
	MsgTaskNotFound    = "Mandat tidak ditemukan."
	MsgNotifMarkFailed = "Gagal menandai notifikasi sebagai dibaca."
)

// Backend is the part of the REST client the terminal app uses.
// *api.Client satisfies it.
type Backend interface {
	session.Authenticator
	Tasks(ctx context.Context, q api.TaskQuery) ([]model.Task, error)
	Users(ctx context.Context) ([]model.User, error)
	LeaderDemography(ctx context.Context) ([]model.LeaderDemography, error)
	BulkCreate(ctx context.Context, tasks []model.NewTaskInput) ([]model.Task, error)
	UpdateRACI(ctx context.Context, taskID, accountableID int64) (*model.Task, error)
	AddUpdate(ctx context.Context, taskID int64, draft policy.UpdateDraft) (*model.Task, error)
	UpdateDueDate(ctx context.Context, taskID int64, req policy.DueDateRequest) (*model.Task, error)
}

// Summarizer writes the executive summary shown on the dashboard.
type Summarizer interface {
	Summarize(ctx context.Context, tasks []model.Task) (string, error)
}

// Deps wires the root model to its collaborators. Summarizer may be nil
// when no AI key is configured.
type Deps struct {
	Backend       Backend
	Session       *session.Manager
	Notifications appsync.NotificationSource
	Flow          *intake.Flow
	Summarizer    Summarizer
	PollOptions   appsync.Options
	Logger        *zap.Logger
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewTasks
	ViewDetail
	ViewIntake
	ViewNotifications
	ViewMandateForm
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing, the
// session lifecycle and the notification poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	backend    Backend
	session    *session.Manager
	notifSrc   appsync.NotificationSource
	pollOpts   appsync.Options
	poller     *appsync.Poller
	summarizer Summarizer
	flow       *intake.Flow
	logger     *zap.Logger

	// epoch changes whenever a session starts or ends; replies carrying
	// an older epoch belong to a torn-down session.
	epoch      int
	user       model.User
	tasks      []model.Task
	users      []model.User
	demography []model.LeaderDemography

	loginView    login.Model
	dashboard    dashview.Model
	taskList     tasklist.Model
	detail       detail.Model
	intakeView   intakeview.Model
	notifView    notifications.Model
	mandateForm  mandateform.Model
	helpView     helpview.Model
	commandView  command.Model
	ready        bool
	restoring    bool
	loading      bool
	unreadCount  int
	flash        string
	flashIsError bool
}

// New creates the root model. The session is restored in Init.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	logger := logging.OrNop(deps.Logger)
	if deps.PollOptions.Logger == nil {
		deps.PollOptions.Logger = logger
	}

	return Model{
		currentView: ViewLogin,
		keys:        k,
		backend:     deps.Backend,
		session:     deps.Session,
		notifSrc:    deps.Notifications,
		pollOpts:    deps.PollOptions,
		summarizer:  deps.Summarizer,
		flow:        deps.Flow,
		logger:      logger,
		loginView:   login.New(80, 24),
		dashboard:   dashview.New(k, 80, 24),
		taskList:    tasklist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		intakeView:  intakeview.New(deps.Flow, k, 80, 24),
		notifView:   notifications.New(k, 80, 24),
		mandateForm: mandateform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		restoring:   true,
	}
}

// Init restores a persisted session, if any.
func (m Model) Init() tea.Cmd {
	return m.restoreSession()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.dashboard.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.intakeView.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.mandateForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionRestoredMsg:
		m.restoring = false
		if msg.state.LoggedIn() {
			return m, m.enterSession(msg.state)
		}
		m.currentView = ViewLogin
		return m, m.loginView.Start()

	case login.SubmitMsg:
		return m, m.signIn(msg.Username, msg.Password)

	case signedInMsg:
		if msg.err != nil {
			m.logger.Info("sign-in failed", zap.Error(msg.err))
			return m, m.loginView.SetError(session.LoginMessage(msg.err))
		}
		return m, m.enterSession(msg.state)

	case dataLoadedMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.loading = false
		if api.IsAuthError(msg.err) {
			return m, m.expire()
		}
		return m, m.applyData(msg)

	case appsync.NotificationsMsg:
		if m.poller == nil {
			return m, nil
		}
		if msg.Err == nil {
			m.unreadCount = msg.Unread
			if m.currentView == ViewNotifications {
				m.notifView.SetItems(msg.Items)
			}
		}
		return m, m.poller.WaitForNextResult()

	case appsync.PollerSuspendedMsg:
		m.setFlash(fmt.Sprintf("Notifikasi terhenti setelah %d kegagalan. Tekan r untuk mencoba lagi.", msg.Failures), true)
		return m, nil

	case appsync.SessionExpiredMsg:
		return m, m.expire()

	case tasklist.SelectedTaskMsg:
		return m, m.openTask(msg.TaskID)

	case detail.BackMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.SubmitUpdateMsg:
		return m, m.submitUpdate(msg)

	case detail.UpdateRACIMsg:
		return m, m.updateRACI(msg)

	case detail.RequestDueDateMsg:
		return m, m.requestDueDate(msg)

	case detail.TaskSavedMsg:
		if m.user.ID == 0 {
			return m, nil
		}
		if api.IsAuthError(msg.Err) {
			return m, m.expire()
		}
		var cmds []tea.Cmd
		if msg.Err == nil && msg.Task != nil {
			cmds = append(cmds, m.replaceTask(*msg.Task))
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case dashview.SummaryRequestMsg:
		return m, m.summarize(msg.Tasks)

	case dashview.SummaryMsg:
		if msg.Err != nil {
			m.logger.Warn("executive summary failed", zap.Error(msg.Err))
		}
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd

	case notifications.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case notifications.OpenTaskMsg:
		m.currentView = m.previousView
		return m, m.openTask(msg.TaskID)

	case notificationsReadMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, m.expire()
			}
			m.logger.Warn("marking notifications read", zap.Error(msg.err))
			m.notifView.SetError(MsgNotifMarkFailed)
			return m, nil
		}
		m.unreadCount = 0
		m.notifView.SetItems(msg.items)
		return m, nil

	case mandateform.SubmitMsg:
		return m, m.createMandate(msg.Input)

	case mandateform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case mandateCreatedMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, m.expire()
			}
			m.logger.Warn("creating mandate", zap.Error(msg.err))
			return m, m.mandateForm.SetError(detail.ErrorMessage(msg.err))
		}
		m.currentView = ViewTasks
		m.setFlash(MsgMandateCreated, false)
		return m, m.refresh()

	case intakeview.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case intakeview.DistributedMsg:
		m.setFlash(intake.MsgDistributed, false)
		return m, m.refresh()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		m.flash = ""
		if m.capturing() {
			if m.currentView == ViewCommand && msg.String() == "esc" {
				m.currentView = m.previousView
				return m, nil
			}
			break
		}
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// capturing reports whether the active view owns every key press.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewLogin, ViewIntake, ViewMandateForm, ViewCommand:
		return true
	case ViewDetail:
		return m.detail.Editing()
	case ViewTasks:
		return m.taskList.Searching()
	}
	return m.restoring
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, m.quit(), true

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.enter(ViewHelp)
		return m, nil, true

	case ":":
		m.enter(ViewCommand)
		return m, m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case "1":
		m.currentView = ViewDashboard
		return m, nil, true

	case "2":
		m.currentView = ViewTasks
		return m, nil, true

	case "3":
		return m, m.openIntake(), true

	case "n":
		return m, m.openMandateForm(), true

	case "b":
		if m.currentView == ViewNotifications {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, m.openNotifications(), true

	case "r":
		return m, m.refresh(), true

	case "L":
		return m, m.logout(), true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewIntake:
		m.intakeView, cmd = m.intakeView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewMandateForm:
		m.mandateForm, cmd = m.mandateForm.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// enter switches to view, remembering where to return to. Overlays never
// become the return target.
func (m *Model) enter(view ViewState) {
	if m.currentView != ViewHelp && m.currentView != ViewCommand {
		m.previousView = m.currentView
	}
	m.currentView = view
}

func (m *Model) setFlash(text string, isError bool) {
	m.flash = text
	m.flashIsError = isError
}

// enterSession installs a signed-in user, starts the poller and loads the
// shared lists.
func (m *Model) enterSession(st session.State) tea.Cmd {
	m.epoch++
	m.user = st.User
	m.unreadCount = 0
	m.flash = ""
	m.detail.SetUser(st.User, m.users)
	m.helpView.SetRole(st.User.Role)
	m.currentView = ViewDashboard
	m.previousView = ViewDashboard
	m.logger.Info("session started",
		zap.Int64("user_id", st.User.ID),
		zap.String("role", string(st.User.Role)))

	m.stopPoller()
	m.poller = appsync.NewPoller(m.notifSrc, st.User.ID, m.pollOpts)
	m.loading = true
	return tea.Batch(m.poller.Start(context.Background()), m.loadData())
}

// applyData feeds one refresh of the shared lists to every view.
func (m *Model) applyData(msg dataLoadedMsg) tea.Cmd {
	m.tasks = msg.tasks
	m.users = msg.users
	m.demography = msg.demography

	m.dashboard.SetData(m.tasks, m.demography)
	m.detail.SetUser(m.user, m.users)
	m.mandateForm.SetRoster(m.users)
	if m.flow != nil {
		m.flow.SetRoster(m.users)
	}
	if id := m.detail.TaskID(); id != 0 && !m.detail.Editing() {
		if t, ok := findTask(m.tasks, id); ok {
			m.detail.SetTask(t)
		}
	}
	return m.taskList.SetData(m.tasks, m.users, m.user.Role)
}

// replaceTask swaps in the backend's copy of a single mandate.
func (m *Model) replaceTask(task model.Task) tea.Cmd {
	for i := range m.tasks {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = task
			break
		}
	}
	m.demography = dashboard.IncludeIdleLeaders(dashboard.DemographyFromTasks(m.tasks), m.users)
	m.dashboard.SetData(m.tasks, m.demography)
	return m.taskList.ReplaceTask(task)
}

func (m *Model) openTask(id int64) tea.Cmd {
	t, ok := findTask(m.tasks, id)
	if !ok {
		m.setFlash(MsgTaskNotFound, true)
		return nil
	}
	m.detail.SetTask(t)
	m.enter(ViewDetail)
	return nil
}

func (m *Model) openIntake() tea.Cmd {
	if !m.user.IsSecretary() {
		m.setFlash(MsgSecretaryOnly, true)
		return nil
	}
	if m.flow == nil {
		m.setFlash("AI noted tidak tersedia.", true)
		return nil
	}
	m.enter(ViewIntake)
	return m.intakeView.Focus()
}

func (m *Model) openMandateForm() tea.Cmd {
	if !m.user.IsSecretary() {
		m.setFlash(MsgSecretaryOnly, true)
		return nil
	}
	m.enter(ViewMandateForm)
	return m.mandateForm.Start()
}

func (m *Model) openNotifications() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	m.notifView.Open(m.poller.Latest())
	m.enter(ViewNotifications)
	if m.unreadCount == 0 {
		return nil
	}
	return m.markNotificationsRead()
}

// refresh reloads the lists and wakes the poller, restarting it when it
// suspended itself.
func (m *Model) refresh() tea.Cmd {
	if m.user.ID == 0 {
		return nil
	}
	var cmds []tea.Cmd
	if m.poller != nil {
		if m.poller.Status().State == appsync.PollSuspended {
			cmds = append(cmds, m.poller.Start(context.Background()))
		} else {
			m.poller.Refresh()
		}
	}
	m.loading = true
	cmds = append(cmds, m.loadData())
	return tea.Batch(cmds...)
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
}

// endSession drops every trace of the signed-in user and shows the login
// screen.
func (m *Model) endSession() {
	m.epoch++
	m.stopPoller()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	m.session.Logout(ctx)

	m.user = model.User{}
	m.tasks, m.users, m.demography = nil, nil, nil
	m.unreadCount = 0
	m.loading = false
	m.dashboard.SetData(nil, nil)
	m.taskList.SetData(nil, nil, "")
	m.detail = detail.New(m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
	if m.flow != nil {
		_ = m.flow.CancelRecording()
		_ = m.flow.Discard()
	}
	m.currentView = ViewLogin
	m.previousView = ViewLogin
}

func (m *Model) logout() tea.Cmd {
	m.logger.Info("logged out", zap.Int64("user_id", m.user.ID))
	m.endSession()
	return m.loginView.Reset()
}

// expire handles a token the backend no longer accepts.
func (m *Model) expire() tea.Cmd {
	if m.currentView == ViewLogin && m.user.ID == 0 {
		return nil
	}
	m.logger.Warn("session expired", zap.Int64("user_id", m.user.ID))
	m.endSession()
	m.loginView.Reset()
	return m.loginView.SetError(MsgSessionExpired)
}

func (m *Model) quit() tea.Cmd {
	m.stopPoller()
	if m.flow != nil {
		_ = m.flow.CancelRecording()
	}
	return tea.Quit
}

// executeCommand handles a command name from the command palette.
func (m *Model) executeCommand(name string) tea.Cmd {
	switch name {
	case "dashboard":
		m.currentView = ViewDashboard
	case "tasks":
		m.currentView = ViewTasks
	case "intake":
		return m.openIntake()
	case "new":
		return m.openMandateForm()
	case "notifications":
		return m.openNotifications()
	case "summary":
		m.currentView = ViewDashboard
		return m.dashboard.RequestSummary()
	case "refresh":
		return m.refresh()
	case "logout":
		return m.logout()
	case "quit":
		return m.quit()
	}
	return nil
}

func findTask(tasks []model.Task, id int64) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Memuat..."
	}

	right := ""
	if m.user.ID != 0 {
		right = fmt.Sprintf("%s | %s | notif %d", m.user.Name, m.user.Role, m.unreadCount)
	}
	header := m.layout.RenderHeader("BOD Watchlist", right)

	tabs := ""
	if m.currentView != ViewLogin {
		labels, active := m.tabs()
		tabs = m.layout.RenderTabs(labels, active)
	}

	statusBar := m.layout.RenderStatusBar(m.statusText())
	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), statusBar)
}

// tabs returns the navigation labels for the signed-in role and the index
// of the active one.
func (m Model) tabs() ([]string, int) {
	labels := []string{"1 Dashboard", "2 Mandat"}
	views := []ViewState{ViewDashboard, ViewTasks}
	if m.user.IsSecretary() {
		labels = append(labels, "3 AI Noted")
		views = append(views, ViewIntake)
	}
	notif := "b Notifikasi"
	if m.unreadCount > 0 {
		notif = fmt.Sprintf("b Notifikasi (%d)", m.unreadCount)
	}
	labels = append(labels, notif)
	views = append(views, ViewNotifications)

	current := m.currentView
	if current == ViewDetail || current == ViewHelp || current == ViewCommand || current == ViewMandateForm {
		current = m.previousView
	}
	for i, v := range views {
		if v == current {
			return labels, i
		}
	}
	return labels, -1
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.restoring {
		return "Memulihkan sesi..."
	}
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dashboard.View()
	case ViewTasks:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewIntake:
		return m.intakeView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewMandateForm:
		return m.mandateForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// statusText returns the flash message, the poller state or keyboard
// hints for the status bar.
func (m Model) statusText() string {
	if m.flash != "" {
		if m.flashIsError {
			return "! " + m.flash
		}
		return m.flash
	}
	if m.poller != nil && m.poller.Status().State == appsync.PollSuspended {
		return "notifikasi terhenti | r coba lagi"
	}
	if m.loading {
		return "memuat data..."
	}

	switch m.currentView {
	case ViewLogin:
		return "enter lanjut | ctrl+c keluar"
	case ViewHelp:
		return "? tutup | esc kembali"
	case ViewCommand:
		return "enter jalankan | esc kembali"
	case ViewDetail:
		return m.detail.Hints()
	case ViewIntake:
		return "ctrl+r rekam | ctrl+e analisis | ctrl+d distribusi | esc kembali"
	case ViewNotifications:
		return "enter buka mandat | esc kembali"
	case ViewMandateForm:
		return "enter lanjut | esc batal"
	case ViewDashboard:
		return "S ringkasan AI | 2 mandat | b notifikasi | ? bantuan | q keluar"
	default:
		if summary := m.taskList.FilterSummary(); summary != "" {
			return summary + " | esc hapus pencarian"
		}
		return "/ cari | u unit | enter buka | ? bantuan | q keluar"
	}
}

// PollOptions builds poller options from the config.
func PollOptions(cfg model.PollerConfig, display model.DisplayConfig, logger *zap.Logger) appsync.Options {
	return appsync.Options{
		Interval:    time.Duration(display.PollIntervalSec) * time.Second,
		MaxFailures: cfg.MaxFailures,
		MaxBackoff:  time.Duration(cfg.MaxBackoffSec) * time.Second,
		Logger:      logger,
	}
}
