package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"cntBot/internal/app/events"
	speechrunner "cntBot/internal/app/speech/runner"
	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/config"
	"cntBot/internal/infrastructure/logger"
	"cntBot/internal/infrastructure/persistence/jsonstore"
	"cntBot/internal/infrastructure/persistence/sqlite"
	twitchinfra "cntBot/internal/infrastructure/platform/twitch"
	kickadapter "cntBot/internal/interface/adapters/kick"
	twitchadapter "cntBot/internal/interface/adapters/twitch"
	"cntBot/internal/interface/api/ws"
	"cntBot/internal/interface/outs"
	"cntBot/internal/usecase/commands"
	"cntBot/internal/usecase/counters"
	"cntBot/internal/usecase/handle_message"
	"cntBot/internal/usecase/notifications"
	"cntBot/internal/usecase/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, _ := config.Load()

	lg, err := logger.New(c.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	// ---------- 1) Política de conteo (fichero YAML) ----------

	policyFile, err := config.ReadCounterPolicy(c.DataDir)
	if err != nil {
		lg.Warn("config: política ilegible, usando valores por defecto", "error", err)
	}

	// ---------- 2) SQLite: diario, ajustes y notificaciones ----------

	var journal domain.CounterJournal
	var settings domain.SettingsRepository
	var notificationsRepo domain.NotificationRepository

	sqliteStore, err := sqlite.NewStore(filepath.Join(c.DataDir, "cntbot.db"))
	if err != nil {
		lg.Warn("sqlite: sin diario ni ajustes persistidos", "error", err)
	} else {
		defer sqliteStore.Close()
		journal = sqliteStore
		settings = sqliteStore
		notificationsRepo = sqliteStore
	}

	// los ajustes guardados pisan los valores del fichero
	policy := counters.NewPolicy(
		settingOr(ctx, settings, domain.SettingNotifyOnIncrement, policyFile.NotifyOnIncrement),
		policyFile.MilestonesEnabled,
		settingOr(ctx, settings, domain.SettingSpeechEnabled, policyFile.Speech.Enabled),
	)

	// ---------- 3) Tabla de contadores ----------

	repo := jsonstore.NewStore(filepath.Join(c.DataDir, "counters", "counters.json"))
	store := counters.NewStore(ctx, repo, lg)

	// ---------- 4) Router de comandos ----------

	router := commands.NewRouter(policyFile.CommandPrefix)
	store.SetCommandChecker(router.Recognizes)

	admins := commands.NewPlatformAdminResolver()
	router.Register(commands.NewPingCommand())
	router.Register(commands.NewCntCommand(store, policy, journal, settings, admins))

	// ---------- 5) Bus de eventos y lectura en voz alta ----------

	bus := events.NewBus(lg)
	defer bus.Close()

	speechSvc := speech.NewService(policyFile.Speech.Voice)
	runner := speechrunner.New(speechrunner.Config{Service: speechSvc, Bus: bus, Log: lg})
	speechSvc.SetQueue(runner)
	runner.Start(ctx)
	defer runner.Close()

	// ---------- 6) Tubería de mensajes ----------

	multiOut := outs.NewMultiSender()
	uc := handle_message.NewInteractor(multiOut, router, store, policy, journal, bus, speechSvc, lg)

	// ---------- 7) Adapters de plataforma ----------

	if c.HasTwitch() {
		twitchAd := twitchadapter.NewAdapter(twitchadapter.Config{
			Username:   c.TwitchUsername,
			OAuthToken: c.TwitchToken,
			Channels:   c.TwitchChannels,
			Log:        lg,
		})
		twitchAd.SetHandler(uc.Handle)
		multiOut.Register(domain.PlatformTwitch, twitchAd)

		// la identidad Helix llega en paralelo; hasta entonces IsSelf se
		// decide solo por el login
		if c.TwitchClientId != "" {
			go resolveTwitchIdentity(ctx, c, twitchAd, lg)
		}

		go func() {
			if err := twitchAd.Start(ctx); err != nil && err != context.Canceled {
				lg.Error("twitch adapter", "error", err)
			}
		}()
	} else {
		lg.Warn("twitch: sin credenciales, adapter desactivado")
	}

	if c.HasKick() {
		kickCfg, err := kickConfig(c, lg, notificationsRepo)
		if err != nil {
			lg.Error("kick: configuración inválida, adapter desactivado", "error", err)
		} else {
			kickAd := kickadapter.NewAdapter(kickCfg)
			kickAd.SetHandler(uc.Handle)
			multiOut.Register(domain.PlatformKick, kickAd)

			go func() {
				if err := kickAd.Start(ctx); err != nil && err != context.Canceled {
					lg.Error("kick adapter", "error", err)
				}
			}()
		}
	} else {
		lg.Warn("kick: sin chatroom configurado, adapter desactivado")
	}

	// ---------- 8) Consola web ----------

	wsSrv := ws.NewServer(ws.Config{Addr: c.WSAddr, Counters: store, Log: lg})
	wsSrv.SetHandler(uc.Handle)
	multiOut.Register(domain.PlatformWeb, wsSrv)

	go func() {
		if err := wsSrv.Start(ctx); err != nil {
			lg.Error("ws server", "error", err)
		}
	}()

	bridgeBusToFeed(ctx, bus, wsSrv)

	lg.Info("bot arrancado",
		"prefix", policyFile.CommandPrefix,
		"data_dir", c.DataDir,
		"platforms", multiOut.Platforms(),
	)

	<-ctx.Done()

	// último guardado antes de soltar el proceso
	store.Flush(context.Background())
	lg.Info("bot apagado")
}

// resolveTwitchIdentity pregunta a Helix por la cuenta dueña del token y se
// la pasa al adapter para afinar la exclusión de mensajes propios.
func resolveTwitchIdentity(ctx context.Context, c *config.Config, ad *twitchadapter.Adapter, lg *logger.Logger) {
	svc, err := twitchinfra.NewHelixIdentityService(c.TwitchClientId, strings.TrimPrefix(c.TwitchToken, "oauth:"))
	if err != nil {
		lg.Warn("helix: sin identidad del bot", "error", err)
		return
	}

	id, login, err := svc.BotUser(ctx)
	if err != nil {
		lg.Warn("helix: sin identidad del bot", "error", err)
		return
	}

	ad.SetBotUserID(id)
	lg.Info("helix: identidad del bot resuelta", "id", id, "login", login)
}

func kickConfig(c *config.Config, lg *logger.Logger, repo domain.NotificationRepository) (kickadapter.Config, error) {
	broadcasterID, err := strconv.Atoi(c.KickBroadcasterUserId)
	if err != nil {
		return kickadapter.Config{}, err
	}
	chatroomID, err := strconv.Atoi(c.KickChatroomId)
	if err != nil {
		return kickadapter.Config{}, err
	}

	// el ID del bot es opcional: sin él, IsSelf se queda en falso
	botUserID := 0
	if c.KickBotUserId != "" {
		botUserID, err = strconv.Atoi(c.KickBotUserId)
		if err != nil {
			return kickadapter.Config{}, err
		}
	}

	eventLogger := notifications.NewEventLogger(repo, lg)

	return kickadapter.Config{
		AccessToken:       c.KickToken,
		BroadcasterUserID: broadcasterID,
		ChatroomID:        chatroomID,
		BotUserID:         botUserID,
		EventHandler:      eventLogger.HandleKickMessage,
		Log:               lg,
	}, nil
}

// bridgeBusToFeed retransmite los topics del bus hacia el feed WebSocket con
// el tipo de sobre que espera la consola.
func bridgeBusToFeed(ctx context.Context, bus *events.Bus, wsSrv *ws.Server) {
	topics := map[string]string{
		events.TopicChatMessage:      "chat",
		events.TopicCounterUpdate:    "counter",
		events.TopicCounterMilestone: "milestone",
		events.TopicSpeechSpoken:     "speech",
	}

	for topic, envelopeType := range topics {
		ch, unsubscribe := bus.Subscribe(topic)
		go func(envelopeType string, ch <-chan any, unsubscribe func()) {
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					wsSrv.Broadcast(envelopeType, payload)
				}
			}
		}(envelopeType, ch, unsubscribe)
	}
}

func settingOr(ctx context.Context, settings domain.SettingsRepository, key string, fallback bool) bool {
	if settings == nil {
		return fallback
	}
	value, err := settings.GetSetting(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value == "true"
}
