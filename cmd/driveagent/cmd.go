package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/corelabsai/driveagent/auth"
	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/internal/mylog"
	"github.com/corelabsai/driveagent/server"
)

func newCmd() *cobra.Command {
	var personaFile string

	cmd := &cobra.Command{
		Use:   "driveagent",
		Short: "Start the drive agent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			logConf, err := config.ResolveLogConfig(false)
			if err != nil {
				return err
			}
			logger := mylog.NewLogger(logConf.LogLevel, logConf.LogHandler)

			modelConf, err := config.ResolveModelConfig(false)
			if err != nil {
				return err
			}
			memConf, err := config.ResolveMemoryConfig(false)
			if err != nil {
				return err
			}
			oauthConf, err := config.ResolveOAuthConfig(false)
			if err != nil {
				return err
			}
			serverConf, err := config.ResolveServerConfig(false)
			if err != nil {
				return err
			}

			eng, err := engine.NewEngine(modelConf, logger)
			if err != nil {
				return err
			}

			oauthSvc, err := auth.NewOAuth(oauthConf, logger)
			if err != nil {
				return err
			}

			srv := server.NewServer(logger, serverConf, memConf, oauthSvc, eng)

			if personaFile != "" {
				persona, err := config.LoadPersonaFromFile(personaFile)
				if err != nil {
					return err
				}
				srv.SetPersona(&persona)
				logger.Info("persona loaded", "name", persona.Name)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			closeCh := make(chan os.Signal, 3)
			defer close(closeCh)
			signal.Notify(closeCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)

			go func() {
				<-closeCh
				cancel()
			}()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&personaFile, "persona", "", "path to a persona YAML file")

	return cmd
}
