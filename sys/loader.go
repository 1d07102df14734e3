package sys

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// SafeGo runs a function in a new goroutine with panic recovery
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				LogError(MsgLoaderPanicRecovered, r)
				fmt.Printf("%s\n", debug.Stack())
			}
		}()
		f()
	}()
}

type (
	CommandHandler      func(event *events.ApplicationCommandInteractionCreate)
	AutocompleteHandler func(event *events.AutocompleteInteractionCreate)
	ComponentHandler    func(event *events.ComponentInteractionCreate)

	// DaemonStarter reports whether the daemon should run, its loop, and an
	// optional shutdown hook.
	DaemonStarter func(ctx context.Context) (bool, func(), func())
)

type daemonEntry struct {
	name    string
	starter DaemonStarter
	logger  func(format string, v ...any)
}

// Loader owns the command, component and daemon registries of one client.
type Loader struct {
	ctx         context.Context
	startedAt   time.Time
	daemonsOnce sync.Once

	commands             []discord.ApplicationCommandCreate
	commandHandlers      map[string]CommandHandler
	autocompleteHandlers map[string]AutocompleteHandler
	componentHandlers    map[string]ComponentHandler
	componentPrefixes    []string
	onReady              []func(ctx context.Context, client *bot.Client)

	daemons         []daemonEntry
	shutdownHooks   []func()
	shutdownHooksMu sync.Mutex
}

func NewLoader(ctx context.Context) *Loader {
	return &Loader{
		ctx:                  ctx,
		startedAt:            time.Now(),
		commandHandlers:      make(map[string]CommandHandler),
		autocompleteHandlers: make(map[string]AutocompleteHandler),
		componentHandlers:    make(map[string]ComponentHandler),
	}
}

// Context returns the application context the loader was created with.
func (l *Loader) Context() context.Context { return l.ctx }

// --- Bot Initialization ---

// CreateClient creates and configures a disgo client
func (l *Loader) CreateClient(cfg *Config) (*bot.Client, error) {
	return disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentDirectMessages,
			),
			gateway.WithPresenceOpts(
				gateway.WithPlayingActivity("Loading..."),
				gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagChannels),
		),
		bot.WithEventListenerFunc(l.onApplicationCommandInteraction),
		bot.WithEventListenerFunc(l.onAutocompleteInteraction),
		bot.WithEventListenerFunc(l.onComponentInteraction),
		bot.WithEventListenerFunc(l.onReadyEvent),
		bot.WithLogger(slog.Default()),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 30 * time.Second,
			}),
		),
	)
}

// --- Command & Handler Registration ---

func (l *Loader) RegisterCommand(cmd discord.SlashCommandCreate, handler CommandHandler) {
	l.commands = append(l.commands, cmd)
	l.commandHandlers[cmd.CommandName()] = handler
}

func (l *Loader) RegisterAutocompleteHandler(cmdName string, handler AutocompleteHandler) {
	l.autocompleteHandlers[cmdName] = handler
}

// RegisterComponentHandler binds a custom ID. IDs ending in ':' match as prefixes.
func (l *Loader) RegisterComponentHandler(customID string, handler ComponentHandler) {
	l.componentHandlers[customID] = handler
	if strings.HasSuffix(customID, ":") {
		l.componentPrefixes = append(l.componentPrefixes, customID)
	}
}

func (l *Loader) OnClientReady(cb func(ctx context.Context, client *bot.Client)) {
	l.onReady = append(l.onReady, cb)
}

// Commands returns the registered command payloads.
func (l *Loader) Commands() []discord.ApplicationCommandCreate {
	return l.commands
}

// RegisterCommands overwrites the guild commands when guildIDStr is set and
// clears the global ones, otherwise registers globally.
func (l *Loader) RegisterCommands(client *bot.Client, guildIDStr string) error {
	if guildIDStr == "" {
		LogInfo(MsgLoaderSyncCommands, "GLOBAL")
		created, err := client.Rest.SetGlobalCommands(client.ApplicationID, l.commands)
		if err != nil {
			return fmt.Errorf(MsgLoaderRegisterFail, err)
		}
		for _, cmd := range created {
			LogInfo(MsgLoaderRegistered, cmd.Name())
		}
		return nil
	}

	guildID, err := snowflake.Parse(guildIDStr)
	if err != nil {
		return fmt.Errorf("invalid GUILD_ID: %w", err)
	}

	LogInfo(MsgLoaderSyncCommands, "GUILD")
	created, err := client.Rest.SetGuildCommands(client.ApplicationID, guildID, l.commands)
	if err != nil {
		return fmt.Errorf(MsgLoaderRegisterFail, err)
	}
	for _, cmd := range created {
		LogInfo(MsgLoaderRegistered, cmd.Name())
	}

	if cmds, err := client.Rest.GetGlobalCommands(client.ApplicationID, false); err == nil && len(cmds) > 0 {
		if _, err := client.Rest.SetGlobalCommands(client.ApplicationID, []discord.ApplicationCommandCreate{}); err != nil {
			LogWarn(MsgLoaderGlobalClearFail, err)
		}
	}
	return nil
}

// --- Event Handlers ---

func (l *Loader) onReadyEvent(event *events.Ready) {
	client := event.Client()
	botUser := event.User

	LogInfo(MsgBotReady, botUser.Username, botUser.ID.String(), os.Getpid(), time.Since(l.startedAt).Milliseconds())

	for _, cb := range l.onReady {
		cb(l.ctx, client)
	}
	l.StartDaemons(l.ctx)
}

func (l *Loader) onApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	if h, ok := l.commandHandlers[event.Data.CommandName()]; ok {
		SafeGo(func() { h(event) })
	}
}

func (l *Loader) onAutocompleteInteraction(event *events.AutocompleteInteractionCreate) {
	if h, ok := l.autocompleteHandlers[event.Data.CommandName]; ok {
		SafeGo(func() { h(event) })
	}
}

func (l *Loader) onComponentInteraction(event *events.ComponentInteractionCreate) {
	if h, ok := l.ComponentHandlerFor(event.Data.CustomID()); ok {
		SafeGo(func() { h(event) })
	}
}

// ComponentHandlerFor resolves a custom ID by exact match first, then by the
// longest registered prefix.
func (l *Loader) ComponentHandlerFor(customID string) (ComponentHandler, bool) {
	if h, ok := l.componentHandlers[customID]; ok {
		return h, true
	}
	best := ""
	for _, prefix := range l.componentPrefixes {
		if strings.HasPrefix(customID, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	return l.componentHandlers[best], true
}

// --- Daemon System ---

// RegisterDaemon registers a background daemon with a logger and start function
func (l *Loader) RegisterDaemon(name string, logger func(format string, v ...any), starter DaemonStarter) {
	l.daemons = append(l.daemons, daemonEntry{name: name, starter: starter, logger: logger})
}

// StartDaemons starts all registered daemons once per process.
func (l *Loader) StartDaemons(ctx context.Context) {
	l.daemonsOnce.Do(func() {
		type activeDaemon struct {
			entry daemonEntry
			run   func()
		}
		var active []activeDaemon

		for _, daemon := range l.daemons {
			if ok, run, shutdown := daemon.starter(ctx); ok && run != nil {
				if shutdown != nil {
					l.shutdownHooksMu.Lock()
					l.shutdownHooks = append(l.shutdownHooks, shutdown)
					l.shutdownHooksMu.Unlock()
				}
				active = append(active, activeDaemon{daemon, run})
			}
		}

		for _, ad := range active {
			ad.entry.logger(MsgDaemonStarting, ad.entry.name)
		}

		for _, ad := range active {
			SafeGo(ad.run)
		}
	})
}

// ShutdownDaemons runs every shutdown hook concurrently and waits for them.
func (l *Loader) ShutdownDaemons() {
	l.shutdownHooksMu.Lock()
	defer l.shutdownHooksMu.Unlock()

	var wg sync.WaitGroup
	for _, shutdown := range l.shutdownHooks {
		wg.Add(1)
		go func(s func()) {
			defer wg.Done()
			s()
		}(shutdown)
	}
	wg.Wait()
}
