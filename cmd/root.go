package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
)

func Start() {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get(c, constants.APP_STOREFRONT)
	logger := log.Get("/var/log/storefront.log", cfg.Application).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_STOREFRONT).
		Str(constants.KEY_TAG, "main Start").
		Logger()
	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.APP_STOREFRONT}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Short: "Run the storefront http server",
		Run: func(cmd *cobra.Command, args []string) {
			RunServer(cmd.Context(), cfg)
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
