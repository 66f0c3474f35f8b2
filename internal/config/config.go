package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type DiscordConfig struct {
	Token              string `yaml:"token" env:"DISCORD_BOT_TOKEN" env-default:""`
	CommandPrefix      string `yaml:"command_prefix" env-default:"!"`
	LeaderboardChannel string `yaml:"leaderboard_channel" env:"LEADERBOARD_CHANNEL_ID" env-default:""`
	LeaderboardTime    string `yaml:"leaderboard_time" env:"LEADERBOARD_TIME" env-default:"09:00"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"invitetrack"`
}

type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Listen  Listen        `yaml:"listen"`
	Env     string        `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
