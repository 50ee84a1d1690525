package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	Build    string
	AppName  string

	Server struct {
		Host            string
		Port            int
		ShutdownTimeout time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// Notifications configures the editing-notification cache.
	Notifications struct {
		IdleTimeout time.Duration
		MaxEntries  int64
	}

	RollbarToken string
}

func (conf *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)
}

func (conf *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%d", conf.Database.Host, conf.Database.Port)
}

// LoadConfig reads configuration from the environment with defaults,
// loading an optional config/.env.<env> file first.
func LoadConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Gradebook")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "gradebook")
	v.SetDefault("database.user", "gradebook")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("notifications.idleTimeout", 10*time.Second)
	v.SetDefault("notifications.maxEntries", int64(10000))
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Port = v.GetInt("server.port")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetInt("database.port")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Notifications.IdleTimeout = v.GetDuration("notifications.idleTimeout")
	conf.Notifications.MaxEntries = v.GetInt64("notifications.maxEntries")
	return conf
}
