/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: serve.go
Description: HTTP service command. Runs the evaluation server until interrupted.
*/

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/kleascm/akaylee-fls/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunServe starts the evaluation server on the selected system
func RunServe(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sys, err := selectedSystem(logger)
	if err != nil {
		return err
	}
	mode, err := fuzzy.ParseMode(viper.GetString("server.mode"))
	if err != nil {
		return err
	}

	config := server.DefaultConfig()
	config.Addr = viper.GetString("server.addr")
	config.CacheSize = viper.GetInt("server.cache_size")
	config.Watch = viper.GetBool("server.watch")
	config.Debounce = viper.GetDuration("server.debounce")
	config.Definition = viper.GetString("definition")
	config.DefaultMode = mode

	srv, err := server.New(sys, config, logger)
	if err != nil {
		return err
	}

	if dir := viper.GetString("server.profile_dir"); dir != "" {
		profiler := monitoring.NewProfiler(dir, "serve", logger.GetLogger())
		if err := profiler.Start(); err != nil {
			return err
		}
		defer profiler.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
