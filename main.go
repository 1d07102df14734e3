package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/home"
	"github.com/leeineian/homework/proc"
	"github.com/leeineian/homework/store"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

const pidFile = ".bot.pid"

func main() {
	// LogFatal panics so deferred cleanup runs; report and exit here.
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok {
				fmt.Fprintf(os.Stderr, "\n[FATAL] %s\n", msg)
				os.Exit(1)
			}
			panic(r)
		}
	}()

	silent := flag.Bool("silent", false, "Disable all log output")
	skipReg := flag.Bool("skip-reg", false, "Skip command registration")
	logFile := flag.Bool("log-file", true, "Also write logs to <binary>.log")
	flag.Parse()

	cfg, err := sys.LoadConfig()
	if err != nil {
		sys.LogFatal(sys.MsgConfigFailedToLoad, err)
	}

	sys.InitLogger(*silent || cfg.Silent, *logFile)

	sys.LogInfo(sys.MsgBotStarting, sys.GetProjectName())

	f := acquirePIDLock()
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		_ = os.Remove(pidFile)
	}()

	if err := run(cfg, *silent, *skipReg); err != nil {
		sys.LogFatal(sys.MsgGenericError, err)
	}
}

// acquirePIDLock takes an exclusive lock on the PID file, terminating any
// previous instance still holding it, and records our PID.
func acquirePIDLock() *os.File {
	f, err := os.OpenFile(pidFile, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		sys.LogFatal("Failed to open PID file: %v", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if err != syscall.EWOULDBLOCK {
			sys.LogFatal("Failed to lock PID file: %v", err)
		}

		var oldPid int
		_, _ = f.Seek(0, 0)
		if _, scanErr := fmt.Fscanf(f, "%d", &oldPid); scanErr != nil || oldPid == os.Getpid() {
			<-ticker.C
			continue
		}

		process, procErr := os.FindProcess(oldPid)
		if procErr != nil {
			<-ticker.C
			continue
		}

		sys.LogInfo(sys.MsgBotKillingOld, oldPid)
		if err := process.Signal(syscall.SIGTERM); err != nil {
			sys.LogWarn(sys.MsgBotKillFail, err)
		}

		timeout := time.After(5 * time.Second)
	waitLoop:
		for {
			select {
			case <-ticker.C:
				if err := process.Signal(syscall.Signal(0)); err != nil {
					break waitLoop
				}
			case <-timeout:
				sys.LogWarn("Old process %d is stubborn. Sending SIGKILL...", oldPid)
				_ = process.Signal(syscall.SIGKILL)
				break waitLoop
			}
		}
		sys.LogInfo(sys.MsgBotOldTerminated)
	}

	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		sys.LogWarn(sys.MsgBotPIDWriteFail, err)
	}
	_ = f.Sync()
	return f
}

func run(cfg *sys.Config, silent, skipReg bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			sys.LogDatabase(sys.MsgDatabaseCloseFail, err)
		}
	}()

	var fallback snowflake.ID
	if cfg.DefaultChannelID != "" {
		if fallback, err = snowflake.Parse(cfg.DefaultChannelID); err != nil {
			return fmt.Errorf("invalid DEFAULT_CHANNEL_ID: %w", err)
		}
	}
	channels, err := sys.OpenChannels(cfg.ChannelsPath, fallback)
	if err != nil {
		return fmt.Errorf(sys.MsgChannelsLoadFail, err)
	}

	sched := task.Schedule{Location: cfg.Location, Hour: cfg.ResetHour, Weekday: cfg.WeeklyResetDay}
	repo := task.NewRepository(st, task.DefaultCatalog(), sched, cfg.DefaultNames)

	parser, err := home.NewParser()
	if err != nil {
		return fmt.Errorf(sys.MsgBotParserFail, err)
	}

	// Handlers and daemons
	loader := sys.NewLoader(ctx)
	home.Register(loader, home.Deps{Config: cfg, Repo: repo, Channels: channels, Parser: parser})
	proc.Register(loader, proc.Deps{Config: cfg, Repo: repo, Channels: channels})

	client, err := loader.CreateClient(cfg)
	if err != nil {
		return fmt.Errorf(sys.MsgBotClientFail, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client.Close(closeCtx)
	}()

	if !skipReg {
		if err := loader.RegisterCommands(client, cfg.GuildID); err != nil {
			sys.LogError(sys.MsgBotRegisterFail, err)
		}
	} else {
		sys.LogInfo("Skipping command registration as requested.")
	}

	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf(sys.MsgBotGatewayFail, err)
	}

	<-ctx.Done()
	if !silent {
		fmt.Println()
	}

	sys.LogInfo("Shutting down all daemons...")
	loader.ShutdownDaemons()

	if botUser, ok := client.Caches.SelfUser(); ok {
		sys.LogInfo(sys.MsgBotShutdown, botUser.Username)
	} else {
		sys.LogInfo(sys.MsgBotShutdown, sys.GetProjectName())
	}
	return nil
}
