package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName      string
	Env          string // DEV (local; default), TEST, QA, PROD
	Build        string
	Debug        bool
	TestMode     bool
	RollbarToken string

	Server struct {
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
		MaxUploadBytes  int64
	}

	Store struct {
		Path string
	}
}

// NewConfig reads the configuration from the environment, optionally seeded by `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Gradebook")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debugAddress", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_disableRequestLogs", false)
	v.SetDefault("server_maxUploadBytes", int64(10<<20))
	v.SetDefault("store_path", "data.json")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Server.Address = v.GetString("server_address")
	conf.Server.DebugAddress = v.GetString("server_debugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("server_shutdownTimeout")
	conf.Server.DisableReqLogs = v.GetBool("server_disableRequestLogs")
	conf.Server.MaxUploadBytes = v.GetInt64("server_maxUploadBytes")
	conf.Store.Path = v.GetString("store_path")
	return conf
}
