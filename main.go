// pulsechat TUI - a terminal client for the pulsechat messaging backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jeranaias/pulsechat-tui/internal/api"
	"github.com/jeranaias/pulsechat-tui/internal/chatstate"
	"github.com/jeranaias/pulsechat-tui/internal/config"
	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/session"
	"github.com/jeranaias/pulsechat-tui/internal/socket"
	"github.com/jeranaias/pulsechat-tui/internal/storage"
	"github.com/jeranaias/pulsechat-tui/internal/ui/chat"
	"github.com/jeranaias/pulsechat-tui/internal/ui/components"
	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference so socket and engine goroutines can deliver
// messages into the Bubble Tea loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("pulsechat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		case "avatar":
			if err := handleAvatar(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "pulsechat requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	closeLog := setupLogging()
	defer closeLog()
	log.Printf("pulsechat %s starting", Version)

	app := newApp(cfg)
	defer app.shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	setProgram(p)

	watcher := startConfigWatcher()
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pulsechat - terminal chat client

Usage:
  pulsechat                start the TUI
  pulsechat avatar <file>  upload a new avatar image
  pulsechat version        print version information

Configuration lives in ~/.pulsechat/config.toml. Set PULSECHAT_SERVER_URL
and PULSECHAT_TOKEN to override it.`)
}

// handleAvatar uploads a new avatar image using the stored session token.
func handleAvatar(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: pulsechat avatar <file>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.Token == "" {
		return errors.New("not signed in; start pulsechat and sign in first")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	client := api.NewClient(cfg.Server.BaseURL)
	client.SetToken(cfg.Auth.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	url, err := client.UploadAvatar(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Printf("avatar updated: %s\n", url)
	return nil
}

// setupLogging redirects the standard logger to a file; stdout belongs to
// the TUI. Returns a close func.
func setupLogging() func() {
	dir, err := config.Dir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	_ = config.EnsureDir()
	f, err := os.OpenFile(filepath.Join(dir, "pulsechat.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	log.SetOutput(f)
	return func() { f.Close() }
}

// startConfigWatcher hot-reloads config edits into the running app.
func startConfigWatcher() *config.Watcher {
	path, err := config.Path()
	if err != nil {
		return nil
	}
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		sendToProgram(configReloadedMsg{cfg: cfg})
	})
	if err != nil {
		log.Printf("config: watcher unavailable: %v", err)
		return nil
	}
	if err := w.Watch(); err != nil {
		log.Printf("config: watch failed: %v", err)
		return nil
	}
	return w
}

// =============================================================================
// ROOT MODEL
// =============================================================================

type view int

const (
	viewLogin view = iota
	viewChats
	viewNewChat
	viewChat
)

// Root messages.
type (
	authResultMsg struct {
		user  model.Participant
		token string
		err   error
	}
	cachedChatsMsg struct{ chats []model.Chat }
	chatsLoadedMsg struct{ chats []model.Chat }
	chatsErrMsg    struct{ err error }
	usersLoadedMsg struct{ users []model.Participant }
	chatCreatedMsg struct {
		chat model.Chat
		err  error
	}
	socketEventMsg struct{ event socket.Event }

	configReloadedMsg struct{ cfg *config.Config }
)

// App is the root Bubble Tea model: login, chat list, open chat.
type App struct {
	cfg   *config.Config
	theme *styles.Theme

	client   *api.Client
	session  *session.Manager
	cache    *storage.Cache
	presence *chatstate.Presence
	engine   *chatstate.Engine
	acc      *chatstate.Accumulator
	pipeline *chatstate.SendPipeline

	sock       *socket.Client
	sockCancel context.CancelFunc

	view      view
	chatList  *components.ChatList
	chatModel *chat.Model
	unsub     chatstate.Unsubscribe

	statusBar *components.StatusBar
	toasts    *components.ToastManager
	spinner   components.Spinner

	// Login form; signupMode adds the name field and switches the submit
	// target to /auth/sign-up.
	nameInput     textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocus    int
	signupMode    bool
	authBusy      bool
	authErr       string

	loadingChats bool

	// New-chat picker
	pickerUsers  []model.Participant
	pickerCursor int
	creatingChat bool

	width  int
	height int
}

func newApp(cfg *config.Config) *App {
	theme := styles.NewTheme()

	client := api.NewClient(cfg.Server.BaseURL)
	if cfg.Auth.Token != "" {
		client.SetToken(cfg.Auth.Token)
	}

	sess := session.NewManager(session.Config{
		IdleTimeout: time.Duration(cfg.Auth.IdleTimeoutMins) * time.Minute,
		Persist: func(token string) error {
			cfg.Auth.Token = token
			return config.Save(cfg)
		},
	})

	var cache *storage.Cache
	if cfg.Cache.Enabled {
		if path, err := cfg.CachePath(); err == nil {
			cache, err = storage.Open(path, cfg.Cache.MaxMessagesPerChat)
			if err != nil {
				log.Printf("cache: disabled, open failed: %v", err)
				cache = nil
			}
		}
	}

	presence := chatstate.NewPresence()
	engine := chatstate.NewEngine(presence)

	name := textinput.New()
	name.Placeholder = "name"
	name.CharLimit = 80

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	a := &App{
		cfg:           cfg,
		theme:         theme,
		client:        client,
		session:       sess,
		cache:         cache,
		presence:      presence,
		engine:        engine,
		acc:           chatstate.NewAccumulator(engine),
		pipeline:      chatstate.NewSendPipeline(engine),
		statusBar:     components.NewStatusBar(theme),
		toasts:        components.NewToastManager(),
		spinner:       components.NewSpinner("Loading chats"),
		nameInput:     name,
		emailInput:    email,
		passwordInput: password,
		view:          viewLogin,
	}
	a.chatList = components.NewChatList(theme, "", engine.IsOnline)
	a.statusBar.SetShortcuts([]components.Shortcut{
		{Key: "Enter", Desc: "open"},
		{Key: "n", Desc: "new"},
		{Key: "r", Desc: "refresh"},
		{Key: "^O", Desc: "sign out"},
		{Key: "q", Desc: "quit"},
	})
	return a
}

// shutdown flushes state on exit.
func (a *App) shutdown() {
	a.stopSocket()
	if a.cache != nil {
		if snap, ok := a.engine.Snapshot(); ok {
			if err := a.cache.SaveConversation(snap); err != nil {
				log.Printf("cache: save on exit failed: %v", err)
			}
		}
		a.cache.Close()
	}
}

// Init resumes a persisted session or shows the login form.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		session.TickCmd(),
		components.ToastTickCmd(),
		textinput.Blink,
	}
	if a.cfg.Auth.Token != "" && a.client.IsConfigured() {
		a.session.Resume(a.cfg.Auth.Token)
		a.view = viewChats
		cmds = append(cmds, a.enterChats()...)
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (a *App) signInCmd(email, password string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := client.SignIn(ctx, api.SignInRequest{Email: email, Password: password})
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{user: resp.User, token: resp.Token}
	}
}

func (a *App) signUpCmd(name, email, password string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := client.SignUp(ctx, api.SignUpRequest{Name: name, Email: email, Password: password})
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{user: resp.User, token: resp.Token}
	}
}

func (a *App) loadCachedChatsCmd() tea.Cmd {
	cache := a.cache
	return func() tea.Msg {
		if cache == nil {
			return nil
		}
		chats, err := cache.LoadChats()
		if err != nil || len(chats) == 0 {
			return nil
		}
		return cachedChatsMsg{chats: chats}
	}
}

func (a *App) fetchChatsCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chats, err := client.FetchChats(ctx)
		if err != nil {
			return chatsErrMsg{err: err}
		}
		return chatsLoadedMsg{chats: chats}
	}
}

func (a *App) fetchUsersCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		users, err := client.FetchAllUsers(ctx)
		if err != nil {
			return nil
		}
		return usersLoadedMsg{users: users}
	}
}

func (a *App) createChatCmd(withUserID string, aiChat bool) tea.Cmd {
	client := a.client
	me := a.session.User().ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		created, err := client.CreateChat(ctx, api.CreateChatRequest{
			ParticipantIDs: []string{me, withUserID},
			IsAIChat:       aiChat,
		})
		if err != nil {
			return chatCreatedMsg{err: err}
		}
		return chatCreatedMsg{chat: created}
	}
}

// enterChats starts everything the chat list needs: socket, cached chats
// for instant paint, then the authoritative fetch.
func (a *App) enterChats() []tea.Cmd {
	a.loadingChats = true
	a.startSocket()
	return []tea.Cmd{
		a.spinner.Start(),
		a.loadCachedChatsCmd(),
		a.fetchChatsCmd(),
		a.fetchUsersCmd(),
	}
}

// =============================================================================
// SOCKET LIFECYCLE
// =============================================================================

func (a *App) startSocket() {
	a.stopSocket()
	token := a.session.Token()
	if token == "" {
		token = a.cfg.Auth.Token
	}
	a.sock = socket.NewClient(a.cfg.ResolveSocketURL(), token)
	ctx, cancel := context.WithCancel(context.Background())
	a.sockCancel = cancel

	go a.sock.Run(ctx)
	go func(events <-chan socket.Event) {
		for ev := range events {
			sendToProgram(socketEventMsg{event: ev})
		}
	}(a.sock.Events())

	a.statusBar.SetConn(components.ConnConnecting)
}

func (a *App) stopSocket() {
	if a.sock != nil {
		a.sock.Close()
	}
	if a.sockCancel != nil {
		a.sockCancel()
	}
	a.sock = nil
	a.sockCancel = nil
	a.presence.Clear()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the active view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleResize(msg)

	case tea.KeyMsg:
		a.session.RecordActivity()
		return a.handleKey(msg)

	case session.TickMsg:
		return a, a.session.HandleTick()

	case session.IdleWarningMsg:
		a.toasts.AddWarning("Signing out in " + session.FormatDuration(msg.Remaining) + " due to inactivity")
		return a, nil

	case session.SignedOutMsg:
		return a.signOut("Signed out due to inactivity")

	case components.ToastTickMsg:
		a.toasts.Tick()
		return a, components.ToastTickCmd()

	case configReloadedMsg:
		return a.applyConfig(msg.cfg)

	case socketEventMsg:
		return a.handleSocketEvent(msg.event)

	case authResultMsg:
		return a.handleAuthResult(msg)

	case cachedChatsMsg:
		// Only paint from cache while the network fetch is outstanding.
		if a.loadingChats && len(a.engine.Chats()) == 0 {
			a.engine.SetChats(msg.chats)
			a.chatList.SetChats(msg.chats)
			a.spinner.Stop()
		}
		return a, nil

	case chatsLoadedMsg:
		a.loadingChats = false
		a.spinner.Stop()
		a.engine.SetChats(msg.chats)
		a.chatList.SetChats(msg.chats)
		if a.cache != nil {
			if err := a.cache.SaveChats(msg.chats); err != nil {
				log.Printf("cache: save chats failed: %v", err)
			}
		}
		return a, nil

	case chatsErrMsg:
		a.loadingChats = false
		a.spinner.Stop()
		a.toasts.AddError(friendlyError(msg.err))
		return a, nil

	case usersLoadedMsg:
		a.engine.SetUsers(msg.users)
		return a, nil

	case chatCreatedMsg:
		a.creatingChat = false
		if msg.err != nil {
			a.toasts.AddError("Could not start chat: " + friendlyError(msg.err))
			a.view = viewChats
			return a, nil
		}
		a.engine.AddChat(msg.chat)
		a.chatList.SetChats(a.engine.Chats())
		a.view = viewChats
		return a.openChat(msg.chat.ID)

	case chat.BackMsg:
		return a.closeChat()

	case chat.SendFailedMsg:
		a.toasts.Add(components.NewRetryableErrorToast(
			"Message failed: "+friendlyError(msg.Err), msg.TempID))
		return a.forwardToChat(msg)

	case chat.ConversationErrMsg:
		a.toasts.AddError(friendlyError(msg.Err))
		return a.forwardToChat(msg)
	}

	return a.forwardByView(msg)
}

func (a *App) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.width = msg.Width
	a.height = msg.Height
	a.theme.SetSize(msg.Width, msg.Height)
	a.statusBar.SetWidth(msg.Width)
	a.chatList.SetSize(msg.Width, msg.Height-3)
	if a.chatModel != nil {
		a.chatModel.SetSize(msg.Width, msg.Height-2)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC && a.view != viewChat {
		return a, tea.Quit
	}

	switch a.view {
	case viewLogin:
		return a.handleLoginKey(msg)
	case viewChats:
		return a.handleChatsKey(msg)
	case viewNewChat:
		return a.handleNewChatKey(msg)
	case viewChat:
		// Retry also clears the toast that pointed at the failed send.
		if msg.String() == "ctrl+t" {
			if t := a.newestRetryableToast(); t != nil {
				a.toasts.Remove(t.ID)
			}
			if a.chatModel != nil {
				var cmd tea.Cmd
				a.chatModel, cmd = a.chatModel.RetryLastFailed()
				return a, cmd
			}
			return a, nil
		}
		return a.forwardToChat(msg)
	}
	return a, nil
}

func (a *App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		fields := 2
		if a.signupMode {
			fields = 3
		}
		if msg.String() == "shift+tab" || msg.String() == "up" {
			a.loginFocus = (a.loginFocus + fields - 1) % fields
		} else {
			a.loginFocus = (a.loginFocus + 1) % fields
		}
		a.focusLoginField()
		return a, textinput.Blink

	case "ctrl+s":
		a.signupMode = !a.signupMode
		a.authErr = ""
		a.loginFocus = 0
		a.focusLoginField()
		return a, textinput.Blink

	case "enter":
		if a.authBusy {
			return a, nil
		}
		email := a.emailInput.Value()
		password := a.passwordInput.Value()
		if a.signupMode {
			name := a.nameInput.Value()
			if name == "" || email == "" || password == "" {
				a.authErr = "Name, email and password are required"
				return a, nil
			}
			a.authBusy = true
			a.authErr = ""
			return a, a.signUpCmd(name, email, password)
		}
		if email == "" || password == "" {
			a.authErr = "Email and password are required"
			return a, nil
		}
		a.authBusy = true
		a.authErr = ""
		return a, a.signInCmd(email, password)
	}

	var cmd tea.Cmd
	switch a.focusedLoginField() {
	case &a.nameInput:
		a.nameInput, cmd = a.nameInput.Update(msg)
	case &a.emailInput:
		a.emailInput, cmd = a.emailInput.Update(msg)
	default:
		a.passwordInput, cmd = a.passwordInput.Update(msg)
	}
	return a, cmd
}

// focusedLoginField maps loginFocus onto the visible fields; the name field
// only exists in sign-up mode.
func (a *App) focusedLoginField() *textinput.Model {
	if a.signupMode {
		switch a.loginFocus {
		case 0:
			return &a.nameInput
		case 1:
			return &a.emailInput
		default:
			return &a.passwordInput
		}
	}
	if a.loginFocus == 0 {
		return &a.emailInput
	}
	return &a.passwordInput
}

func (a *App) focusLoginField() {
	a.nameInput.Blur()
	a.emailInput.Blur()
	a.passwordInput.Blur()
	a.focusedLoginField().Focus()
}

func (a *App) handleChatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.chatList.CursorUp()
	case "down", "j":
		a.chatList.CursorDown()
	case "home", "g":
		a.chatList.CursorTop()
	case "end", "G":
		a.chatList.CursorBottom()
	case "r":
		return a, tea.Batch(a.fetchChatsCmd(), a.fetchUsersCmd())
	case "n":
		return a.openNewChatPicker()
	case "x":
		a.dismissNewestToast()
	case "enter":
		if selected := a.chatList.Selected(); selected != nil {
			return a.openChat(selected.ID)
		}
	case "ctrl+o":
		return a.signOut("Signed out")
	}
	return a, nil
}

// openNewChatPicker lists the user directory so a chat can be started with
// anyone, not just existing conversations.
func (a *App) openNewChatPicker() (tea.Model, tea.Cmd) {
	me := a.session.User().ID
	a.pickerUsers = a.pickerUsers[:0]
	for _, u := range a.engine.Users() {
		if u.ID != me {
			a.pickerUsers = append(a.pickerUsers, u)
		}
	}
	if len(a.pickerUsers) == 0 {
		a.toasts.AddStatus("No other users yet")
		return a, a.fetchUsersCmd()
	}
	a.pickerCursor = 0
	a.creatingChat = false
	a.view = viewNewChat
	return a, nil
}

func (a *App) handleNewChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.view = viewChats
	case "up", "k":
		if a.pickerCursor > 0 {
			a.pickerCursor--
		}
	case "down", "j":
		if a.pickerCursor < len(a.pickerUsers)-1 {
			a.pickerCursor++
		}
	case "enter":
		if a.creatingChat || len(a.pickerUsers) == 0 {
			return a, nil
		}
		picked := a.pickerUsers[a.pickerCursor]

		// Reuse an existing private chat with that user instead of
		// creating a duplicate.
		me := a.session.User().ID
		for _, c := range a.engine.Chats() {
			if !c.IsGroup && c.OtherParticipant(me) != nil && c.OtherParticipant(me).ID == picked.ID {
				a.view = viewChats
				return a.openChat(c.ID)
			}
		}

		a.creatingChat = true
		return a, a.createChatCmd(picked.ID, picked.IsAI)
	}
	return a, nil
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	a.authBusy = false
	if msg.err != nil {
		a.authErr = friendlyError(msg.err)
		return a, nil
	}

	a.client.SetToken(msg.token)
	if err := a.session.SignIn(msg.user, msg.token); err != nil {
		log.Printf("session: token persist failed: %v", err)
	}
	a.chatList = components.NewChatList(a.theme, msg.user.ID, a.engine.IsOnline)
	a.chatList.SetSize(a.width, a.height-3)
	a.statusBar.SetUser(msg.user.Name)
	a.nameInput.Reset()
	a.passwordInput.Reset()
	a.signupMode = false
	a.view = viewChats
	return a, tea.Batch(a.enterChats()...)
}

// =============================================================================
// CHAT OPEN/CLOSE
// =============================================================================

func (a *App) openChat(chatID string) (tea.Model, tea.Cmd) {
	a.chatModel = chat.New(a.theme, a.engine, a.pipeline, a.client,
		a.session.User(), chatID, a.cfg.UI.MarkdownWidth)
	a.chatModel.SetSize(a.width, a.height-2)

	a.unsub = a.engine.Subscribe(chatID, func(conv model.Conversation) {
		sendToProgram(chat.SnapshotMsg{Conversation: conv})
	})
	if a.sock != nil {
		a.sock.Join(chatID)
	}

	a.view = viewChat
	return a, a.chatModel.Init()
}

func (a *App) closeChat() (tea.Model, tea.Cmd) {
	if a.chatModel == nil {
		a.view = viewChats
		return a, nil
	}
	chatID := a.chatModel.ChatID()

	if a.cache != nil {
		if snap, ok := a.engine.Snapshot(); ok {
			if err := a.cache.SaveConversation(snap); err != nil {
				log.Printf("cache: save conversation failed: %v", err)
			}
		}
	}

	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	if a.sock != nil {
		a.sock.Leave(chatID)
	}
	a.engine.ClearActive()
	a.acc.Reset()

	a.chatModel = nil
	a.view = viewChats
	a.chatList.SetChats(a.engine.Chats())
	return a, nil
}

func (a *App) signOut(reason string) (tea.Model, tea.Cmd) {
	if a.view == viewChat {
		a.closeChat()
	}
	a.stopSocket()
	if err := a.session.SignOut(); err != nil {
		log.Printf("session: sign-out persist failed: %v", err)
	}
	a.client.SetToken("")
	a.engine.SetChats(nil)
	a.chatList.SetChats(nil)
	if a.cache != nil {
		if err := a.cache.Clear(); err != nil {
			log.Printf("cache: clear failed: %v", err)
		}
	}
	a.statusBar.SetUser("")
	a.statusBar.SetConn(components.ConnDisconnected)
	a.toasts.AddStatus(reason)
	a.view = viewLogin
	a.emailInput.Focus()
	a.loginFocus = 0
	return a, textinput.Blink
}

// =============================================================================
// SOCKET EVENTS
// =============================================================================

func (a *App) handleSocketEvent(ev socket.Event) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch ev.Kind {
	case socket.KindConnected:
		a.statusBar.SetConn(components.ConnConnected)

	case socket.KindReconnected:
		a.statusBar.SetConn(components.ConnConnected)
		// Anything pushed during the outage is lost; refetch the list and
		// the open conversation.
		cmds = append(cmds, a.fetchChatsCmd())
		if a.chatModel != nil {
			cmds = append(cmds, a.chatModel.Init())
		}

	case socket.KindDisconnected:
		a.statusBar.SetConn(components.ConnReconnecting)
		a.presence.Clear()

	case socket.KindNewMessage:
		if ev.Message != nil {
			a.engine.AppendIncoming(ev.ChatID, *ev.Message)
			a.engine.UpdateLastMessage(ev.ChatID, *ev.Message)
			a.chatList.SetChats(a.engine.Chats())
		}

	case socket.KindAIChunk:
		a.acc.Chunk(ev.ChatID, ev.Chunk)

	case socket.KindAIDone:
		if ev.Message != nil {
			a.acc.Done(ev.ChatID, *ev.Message)
			a.engine.UpdateLastMessage(ev.ChatID, *ev.Message)
			a.chatList.SetChats(a.engine.Chats())
		}

	case socket.KindPresenceState:
		a.presence.Replace(ev.UserIDs)

	case socket.KindPresenceOnline:
		a.presence.Add(ev.UserID)

	case socket.KindPresenceOffline:
		a.presence.Remove(ev.UserID)
	}

	a.statusBar.SetOnlineCount(a.presence.Count())
	return a, tea.Batch(cmds...)
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (a *App) applyConfig(cfg *config.Config) (tea.Model, tea.Cmd) {
	oldSocket := a.cfg.ResolveSocketURL()
	a.cfg = cfg

	if cfg.Server.BaseURL != "" {
		a.client = api.NewClient(cfg.Server.BaseURL)
		a.client.SetToken(a.session.Token())
	}
	if a.session.SignedIn() && cfg.ResolveSocketURL() != oldSocket {
		a.startSocket()
	}
	a.toasts.AddStatus("Configuration reloaded")
	log.Printf("config: reloaded")
	return a, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *App) forwardByView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	a.spinner, cmd = a.spinner.Update(msg)
	cmds = append(cmds, cmd)

	switch a.view {
	case viewLogin:
		a.nameInput, cmd = a.nameInput.Update(msg)
		cmds = append(cmds, cmd)
		a.emailInput, cmd = a.emailInput.Update(msg)
		cmds = append(cmds, cmd)
		a.passwordInput, cmd = a.passwordInput.Update(msg)
		cmds = append(cmds, cmd)
	case viewChat:
		if a.chatModel != nil {
			a.chatModel, cmd = a.chatModel.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) forwardToChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.chatModel == nil {
		return a, nil
	}
	var cmd tea.Cmd
	a.chatModel, cmd = a.chatModel.Update(msg)
	return a, cmd
}

func (a *App) dismissNewestToast() {
	toasts := a.toasts.Toasts()
	if len(toasts) > 0 {
		a.toasts.Remove(toasts[0].ID)
	}
}

func (a *App) newestRetryableToast() *components.Toast {
	for _, t := range a.toasts.Toasts() {
		if t.RetryTempID != "" {
			toast := t
			return &toast
		}
	}
	return nil
}

// friendlyError maps transport errors to something worth showing.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return "Session expired, please sign in again"
	case errors.Is(err, api.ErrNotConfigured):
		return "No server configured; edit ~/.pulsechat/config.toml"
	case errors.Is(err, api.ErrRateLimited):
		return "Slow down, the server is rate limiting requests"
	case errors.Is(err, api.ErrNotFound):
		return "Not found"
	default:
		return err.Error()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active screen plus the status bar and toast stack.
func (a *App) View() string {
	if a.width == 0 {
		return "starting..."
	}

	var content string
	switch a.view {
	case viewLogin:
		content = a.viewLogin()
	case viewChats:
		content = a.viewChats()
	case viewNewChat:
		content = a.viewNewChatPicker()
	case viewChat:
		if a.chatModel != nil {
			content = a.chatModel.View()
		}
	}

	bar := a.statusBar.View()

	out := lipgloss.JoinVertical(lipgloss.Left, content, bar)
	if a.toasts.HasToasts() {
		stack := components.RenderToastStack(a.theme, a.toasts.Toasts(), 0, 0)
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			lipgloss.PlaceHorizontal(a.width, lipgloss.Right, stack))
	}
	return out
}

func (a *App) viewLogin() string {
	title := a.theme.HeaderTitle.Render("pulsechat")
	subtitle := a.theme.HeaderSubtitle.Render("sign in to continue")
	busyText := "Signing in..."
	hint := "Enter to sign in, Tab to switch fields, C-s to create an account, C-c to quit"

	var fields []string
	if a.signupMode {
		subtitle = a.theme.HeaderSubtitle.Render("create an account")
		busyText = "Creating account..."
		hint = "Enter to sign up, Tab to switch fields, C-s to sign in instead, C-c to quit"
		fields = append(fields,
			a.theme.LoginLabel.Render("Name"),
			a.nameInput.View(),
			"")
	}
	fields = append(fields,
		a.theme.LoginLabel.Render("Email"),
		a.emailInput.View(),
		"",
		a.theme.LoginLabel.Render("Password"),
		a.passwordInput.View(),
	)
	form := lipgloss.JoinVertical(lipgloss.Left, fields...)

	lines := []string{title, subtitle, "", form}
	if a.authBusy {
		lines = append(lines, "", a.theme.TypingText.Render(busyText))
	}
	if a.authErr != "" {
		lines = append(lines, "", a.theme.FailedStatus.Render(a.authErr))
	}
	lines = append(lines, "", a.theme.ShortcutDesc.Render(hint))

	box := a.theme.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, box)
}

func (a *App) viewNewChatPicker() string {
	header := a.theme.Header.Width(a.width).Render(
		a.theme.HeaderTitle.Render("New chat") + "  " +
			a.theme.HeaderSubtitle.Render("pick someone to talk to"))

	var rows []string
	for i, u := range a.pickerUsers {
		name := u.Name
		if u.IsAI {
			name += "  " + a.theme.HeaderSubtitle.Render("assistant")
		}
		if i == a.pickerCursor {
			rows = append(rows, a.theme.ChatItemSelected.Render("> "+name))
		} else {
			rows = append(rows, a.theme.ChatItem.Render("  "+name))
		}
	}
	if a.creatingChat {
		rows = append(rows, "", a.theme.TypingText.Render("Starting chat..."))
	}
	rows = append(rows, "", a.theme.ShortcutDesc.Render("Enter to start, Esc to go back"))

	body := a.theme.Container.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (a *App) viewChats() string {
	header := a.theme.Header.Width(a.width).Render(
		a.theme.HeaderTitle.Render("Chats") + "  " +
			a.theme.HeaderSubtitle.Render(a.session.User().Name))

	var body string
	if a.spinner.IsActive() {
		body = a.theme.Container.Render(a.spinner.View())
	} else {
		body = a.chatList.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}
