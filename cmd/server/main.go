package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"invitetrack/bot"
	"invitetrack/impl/core"
	"invitetrack/internal/config"
	"invitetrack/internal/database"
	"invitetrack/internal/http-server/api"
	"invitetrack/internal/job"
	"invitetrack/internal/leaderboard"
	"invitetrack/internal/tracker"
	"invitetrack/lib/logger"
	"invitetrack/lib/sl"
)

const logFileName = "invitetrack.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting invitetrack", slog.String("config", *configPath), slog.String("env", conf.Env))

	var store database.Store
	if mongo := database.NewMongoClient(conf); mongo != nil {
		store = mongo
	} else {
		log.Warn("mongo disabled, using in-memory store; counts reset on restart")
		store = database.NewMemory()
	}

	trk := tracker.New(store, log)
	board := leaderboard.New(store, log)

	b, err := bot.New(bot.Config{
		Token:              conf.Discord.Token,
		CommandPrefix:      conf.Discord.CommandPrefix,
		LeaderboardChannel: conf.Discord.LeaderboardChannel,
	}, trk, board, log)
	if err != nil {
		log.Error("creating discord bot", sl.Err(err))
		os.Exit(1)
	}
	// the bot doubles as the platform gateway and identity resolver
	trk.SetPlatform(b)
	board.SetResolver(b)

	handler := core.New(store, trk, board, log)
	go func() {
		if err := api.New(conf, log, handler); err != nil {
			log.Error("api server stopped", sl.Err(err))
		}
	}()

	daily := job.NewDailyLeaderboard(b, trk, log)
	if err = daily.Start(conf.Discord.LeaderboardTime); err != nil {
		log.Error("starting daily leaderboard job", sl.Err(err))
	}

	if err = b.Start(); err != nil {
		log.Error("starting discord bot", sl.Err(err))
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	daily.Stop()
	b.Stop()
	log.Info("invitetrack stopped")
}
