package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
	"github.com/ryutarou1/lucky-alarm-native/internal/config"
	"github.com/ryutarou1/lucky-alarm-native/internal/notify"
	"github.com/ryutarou1/lucky-alarm-native/internal/scheduler"
	"github.com/ryutarou1/lucky-alarm-native/internal/store"
	"github.com/ryutarou1/lucky-alarm-native/internal/telegram"
)

// firedEvent is one confirmed delivery handed from a notifier timer
// goroutine to the sequential event loop.
type firedEvent struct {
	deliveryID string
	firedAt    time.Time
}

type App struct {
	cfg      config.Config
	log      *zap.Logger
	bot      *tgbotapi.BotAPI
	httpSrv  *http.Server
	sessions store.Sessions
	notifier *notify.TimerNotifier
	sched    *scheduler.Scheduler
	router   *telegram.Router
	draw     alarm.Draw
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, draw: alarm.SystemDraw()}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting lucky-alarm", zap.String("http", a.cfg.HTTPAddr))

	// Open SQLite and run migrations.
	sessions, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.sessions = sessions
	a.log.Info("sqlite ready")

	a.router = telegram.NewRouter(a.bot, a.log, a.sessions, a.cfg.MaxOffsetCap)
	a.notifier = notify.NewTimerNotifier(a.router, a.log)
	a.sched = scheduler.New(a.notifier, notify.NewChatGate(a.bot), a.draw, a.log)
	a.router.AttachScheduler(a.sched)

	firedCh := make(chan firedEvent, 16)
	a.notifier.OnFired(func(deliveryID string, firedAt time.Time) {
		firedCh <- firedEvent{deliveryID: deliveryID, firedAt: firedAt}
	})

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Single actor: updates and fired deliveries are handled one at a time,
	// so session state is never mutated concurrently.
	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			// Short-lived shutdown context, canceled right after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			a.notifier.Close()
			if a.sessions != nil {
				_ = a.sessions.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)

		case ev := <-firedCh:
			a.handleFired(ctx, ev)
		}
	}
}

// handleFired turns a confirmed delivery into a history record, persists it,
// and sends the savings report.
func (a *App) handleFired(ctx context.Context, ev firedEvent) {
	chatID, inst, ok := a.sched.ConfirmFired(ev.deliveryID)
	if !ok {
		// Replaced or disarmed while the send was in flight.
		a.log.Debug("unmatched delivery confirmation", zap.String("deliveryID", ev.deliveryID))
		return
	}

	st, found, err := a.sessions.Load(ctx, chatID)
	persist := err == nil
	if err != nil {
		// A failed load must not let Save clobber stored history with
		// defaults; record in memory only and keep going.
		a.log.Error("load session state failed", zap.Error(err), zap.Int64("chatID", chatID))
		st = store.Default()
	} else if !found {
		st = store.Default()
	}

	st.History, st.TotalSaved = alarm.RecordFiring(st.History, inst, ev.firedAt, st.TotalSaved)
	if persist {
		if err := a.sessions.Save(ctx, chatID, st); err != nil {
			a.log.Error("persist firing failed", zap.Error(err), zap.Int64("chatID", chatID))
		}
	}

	a.log.Info("wake-up recorded",
		zap.Int64("chatID", chatID),
		zap.Int("savedMinutes", inst.OffsetMinutes),
		zap.Int("totalSaved", st.TotalSaved))

	a.router.NotifySavings(chatID, inst.OffsetMinutes,
		alarm.WeeklySaved(st.History, ev.firedAt), st.TotalSaved,
		alarm.SuggestFor(inst.OffsetMinutes, a.draw))
}
