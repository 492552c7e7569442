package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pathakanu/myAgenda/internal/api"
	"github.com/pathakanu/myAgenda/internal/bot"
	"github.com/pathakanu/myAgenda/internal/notify"
	myopenai "github.com/pathakanu/myAgenda/internal/openai"
	"github.com/pathakanu/myAgenda/internal/twilio"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the WhatsApp webhook and the notifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	openAIClient := myopenai.New(a.cfg.OpenAIAPIKey)
	twilioClient := twilio.New(a.cfg.TwilioAccountSID, a.cfg.TwilioAuthToken, a.cfg.TwilioWhatsAppNumber, a.log.With().Str("component", "twilio").Logger())
	agendaBot := bot.New(a.cfg, a.reminders, a.calendar, openAIClient, a.log.With().Str("component", "bot").Logger())

	var dispatcher *notify.Dispatcher
	if a.cfg.NotificationsEnabled {
		dispatcher = notify.New(a.cfg, a.store, a.calendar, twilioClient, openAIClient, a.log.With().Str("component", "notify").Logger())
		if err := dispatcher.StartScheduler(); err != nil {
			return WrapExitError(ExitCommandError, "scheduler start", err)
		}
	}

	router := api.NewRouter(api.Services{
		Reminders:    a.reminders,
		Appointments: a.appointments,
		Calendar:     a.calendar,
		TodayLimit:   a.cfg.TodayLimit,
		Webhook:      agendaBot.Handler(),
	})

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return waitForShutdown(server, dispatcher, errCh, a.log)
}

func waitForShutdown(server *http.Server, dispatcher *notify.Dispatcher, errCh <-chan error, log zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var serveErr error
	select {
	case <-stop:
		log.Info().Msg("Shutting down...")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("Server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if dispatcher != nil {
		dispatcher.StopScheduler()
	}
	if serveErr != nil {
		return WrapExitError(ExitCommandError, "server error", serveErr)
	}
	return nil
}
