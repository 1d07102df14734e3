package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// --- Globals & Styles ---

var (
	// Level colors
	infoColor  = color.New()
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)

	// Component colors
	databaseColor = color.New()
	homeworkColor = color.New(color.FgGreen)
	alertColor    = color.New(color.FgMagenta)
	resetColor    = color.New(color.FgBlue)
	nudgeColor    = color.New(color.FgMagenta)
	statusColor   = color.New(color.FgMagenta)

	DefaultTimeFormat = "15:04:05"
	IsSilent          = false
	LogToFile         = false
	Logger            *slog.Logger

	logFile *os.File
	logMu   sync.Mutex
)

// --- Initialization ---

func init() {
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	var err error

	if LogToFile {
		logName := GetProjectName() + ".log"
		if exePath, exeErr := os.Executable(); exeErr == nil {
			logName = filepath.Base(exePath) + ".log"
		}

		logFile, err = os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logName, err)
		} else {
			writer = io.MultiWriter(os.Stdout, NewStripANSIWriter(logFile))
		}
	}

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

// --- Public Logging API ---

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// LogFatal logs and panics so deferred cleanup still runs; main recovers it.
func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg)
	panic(msg)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Component Loggers

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogHomework(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "homework"))
}

func LogAlert(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "alert"))
}

func LogReset(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "reset"))
}

func LogNudge(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "nudge"))
}

func LogStatus(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "status"))
}

// --- Log Handler Implementation ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format(DefaultTimeFormat)
	levelStr := "DEBUG"
	levelColor := infoColor

	switch {
	case r.Level >= slog.LevelError+4:
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
	}

	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(compColor, fmt.Sprintf("[%s] %s", component, r.Message)))
	} else {
		displayMsg := fmt.Sprintf("[%s] %s", levelStr, r.Message)
		if levelStr == "INFO" && strings.HasPrefix(r.Message, "[") {
			if idx := strings.Index(r.Message, "]"); idx > 0 && idx < 20 {
				displayMsg = r.Message
			}
		}
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(levelColor, displayMsg))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

// --- Formatting Helpers ---

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "HOMEWORK":
		return homeworkColor
	case "ALERT":
		return alertColor
	case "RESET":
		return resetColor
	case "NUDGE":
		return nudgeColor
	case "STATUS":
		return statusColor
	default:
		return color.New(color.FgCyan)
	}
}

func colorizeWithResets(c *color.Color, text string) string {
	if !strings.Contains(text, "\x1b[0m") {
		return c.Sprint(text)
	}

	marker := "@@@MSG@@@"
	wrapped := c.Sprint(marker)
	idx := strings.Index(wrapped, marker)
	if idx <= 0 {
		return text
	}
	startSeq := wrapped[:idx]

	modifiedText := strings.ReplaceAll(text, "\x1b[0m", "\x1b[0m"+startSeq)
	return c.Sprint(modifiedText)
}

func GetLogPath() string {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

// --- ANSI Stripper ---

type StripANSIWriter struct {
	w  io.Writer
	re *regexp.Regexp
}

func NewStripANSIWriter(w io.Writer) *StripANSIWriter {
	return &StripANSIWriter{
		w:  w,
		re: regexp.MustCompile(`\x1b\[[0-9;]*m`),
	}
}

func (s *StripANSIWriter) Write(p []byte) (n int, err error) {
	clean := s.re.ReplaceAll(p, []byte(""))
	_, err = s.w.Write(clean)
	return len(p), err
}

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad  = "Failed to load config: %v"
	MsgConfigMissingToken  = "DISCORD_TOKEN is not set in .env file"
	MsgDatabaseInitSuccess = "Database initialized successfully (%s)"
	MsgDatabaseTableError  = "Failed to create table: %w"
	MsgDatabasePragmaError = "Failed to set pragma %s: %w"
	MsgDatabaseOpenFail    = "Failed to open store: %v"
	MsgDatabaseCloseFail   = "Failed to close store: %v"
	MsgChannelsLoadFail    = "Failed to load channel routes: %w"
	MsgRecordSkipped       = "Skipping record %s: %v"
	MsgDaemonStarting      = "Starting %s..."
	MsgDaemonShutdown      = "Shutting down %s..."
	MsgBotStarting         = "Starting %s..."
	MsgBotReady            = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown         = "Shutting down %s..."
	MsgBotKillingOld       = "Killing running instance... (PID: %d)"
	MsgBotKillFail         = "Failed to kill old instance: %v"
	MsgBotOldTerminated    = "Old instance terminated."
	MsgBotPIDWriteFail     = "Failed to write PID file: %v"
	MsgBotRegisterFail     = "Command registration failed: %v"
	MsgBotClientFail       = "Failed to create client: %w"
	MsgBotGatewayFail      = "Failed to open gateway: %w"
	MsgBotParserFail       = "Failed to initialize natural time parser: %w"
	MsgGenericError        = "%v"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands    = "Syncing %s commands..."
	MsgLoaderRegistered      = "Registered: %s"
	MsgLoaderRegisterFail    = "Command registration failed: %w"
	MsgLoaderGlobalClearFail = "Global clear skipped (likely rate limited): %v"
	MsgLoaderPanicRecovered  = "Panic recovered in handler: %v"

	// --- Homework ---
	MsgHomeworkRespondError   = "Failed to respond: %v"
	MsgHomeworkHandlerError   = "Handler error: %v"
	MsgHomeworkBadCustomID    = "Ignoring component: %v"
	MsgHomeworkToggled        = "User %s used %s/%s"
	MsgHomeworkHeader         = "## 📒 %s 숙제 (%d/%d)\n"
	MsgHomeworkDailyHeader    = "\n**일일**\n"
	MsgHomeworkWeeklyHeader   = "\n**주간**\n"
	MsgHomeworkOpenButton     = "📒 숙제 열기"
	MsgCharacterAdded         = "User %s added character %s"
	MsgCharacterAddedNotice   = "✅ 캐릭터가 추가되었습니다."
	MsgCharacterRemoved       = "User %s removed character %s"
	MsgCharacterRemovedNotice = "🗑️ 캐릭터를 제거했습니다: %s"
	MsgCharacterListHeader    = "📋 현재 등록된 캐릭터 목록 (%d)\n"
	MsgCharacterListItem      = "- %s (%d/%d 완료)\n"
	MsgChannelSet             = "Channel %s routed to %s"
	MsgChannelSetFail         = "Failed to route channel %s: %v"
	MsgChannelSetNotice       = "✅ `%s` 채널이 <#%s>(으)로 설정되었습니다."

	// --- Alerts ---
	MsgAlertScheduleFail    = "Failed to schedule alert job: %v"
	MsgAlertFiring          = "Alert for %s (boss: %t)"
	MsgAlertNoChannel       = "No alert channel configured, skipping channel post"
	MsgAlertSendFail        = "Failed to send alert to %s: %v"
	MsgAlertExpired         = "Alert %s expired"
	MsgAlertEditFail        = "Failed to expire alert %s: %v"
	MsgAlertSubscribersFail = "Failed to load alert subscribers: %v"
	MsgAlertDMFail          = "Failed to DM alert to %s: %v"
	MsgAlertDMSent          = "Alert sent to %d subscribers"
	MsgAlertSubscription    = "User %s alerts: %t"
	MsgAlertEnabled         = "🔔 이벤트 알림을 DM으로 받습니다."
	MsgAlertDisabled        = "🔕 DM 알림을 껐습니다."

	// --- Resets ---
	MsgResetScheduleFail = "Failed to schedule reset job: %v"
	MsgResetSweepFail    = "Reset sweep failed: %v"
	MsgResetSaveFail     = "Failed to save reset record %s: %v"
	MsgResetSwept        = "Applied %s reset to %d records"
	MsgResetNoticeFail   = "Failed to post reset notice to %s: %v"
	MsgResetNoticeDaily  = "🔄 일일 숙제가 초기화되었습니다."
	MsgResetNoticeWeekly = "🔄 일일 및 주간 숙제가 초기화되었습니다."

	// --- Nudges ---
	MsgNudgeQueryFail     = "Failed to load nudges: %v"
	MsgNudgeClaimFail     = "Failed to claim nudge for %s: %v"
	MsgNudgeSendFail      = "Failed to send nudge to %s: %v"
	MsgNudgeSent          = "Nudge sent to %s"
	MsgNudgeScheduled     = "User %s nudge at %s"
	MsgNudgeHeader        = "⏰ **아직 남은 숙제가 있어요!**\n"
	MsgNudgeCharacterLine = "- **%s**: %s\n"
	MsgNudgeAllDone       = "🎉 모든 숙제를 끝냈어요!"
	MsgNudgeSetNotice     = "⏰ %s 남은 숙제를 DM으로 알려드릴게요."
	MsgNudgeCleared       = "🗑️ 예약된 독촉을 취소했습니다."
	MsgNudgeNonePending   = "예약된 독촉이 없습니다."

	// --- Status ---
	MsgStatusUpdateFail = "Failed to update status: %v"
	MsgStatusRotated    = "Status: %s (next in %s)"
	MsgStatusNextBoss   = "Next boss in %s"
	MsgStatusTracking   = "Tracking %d characters"
	MsgStatusNextReset  = "Reset in %s"

	// --- User-facing Errors ---
	ErrGeneric              = "❌ 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	ErrCharacterExists      = "❌ 이미 존재하는 캐릭터입니다."
	ErrCharacterNotFound    = "❌ 존재하지 않는 캐릭터입니다."
	ErrCharacterInvalidName = "❌ 캐릭터 이름은 1~32자여야 합니다."
	ErrNoCharacters         = "❌ 등록된 캐릭터가 없습니다. `/캐릭터 추가`로 먼저 등록해주세요."
	ErrUnknownTask          = "❌ 알 수 없는 숙제입니다."
	ErrChannelSetFailed     = "❌ 채널 설정을 저장하지 못했습니다."
	ErrNudgeParseFailed     = "❌ 시간을 이해하지 못했습니다. 'in 2 hours', 'tonight at 11pm', '90m' 같은 형식을 사용해주세요."
	ErrNudgePastTime        = "❌ 독촉 시간은 미래여야 합니다."
)
