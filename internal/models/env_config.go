package models

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type EnvConfig struct {
	DatabaseURL   string
	MigrationsURL string
	Port          string
	NonceKey      []byte
	PerPage       int
	Debug         bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("rubricvote")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("RUBRICVOTE")
	v.AutomaticEnv()

	v.SetDefault("port", "23495")
	v.SetDefault("migrations_url", "file://migrations")
	v.SetDefault("per_page", DefaultPerPage)
	v.SetDefault("debug", false)
	return v
}

// ReadEnvConfig reads RUBRICVOTE_* environment variables, falling back to
// an optional rubricvote.yaml in the working directory.
func ReadEnvConfig() EnvConfig {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Println("Ignoring unreadable rubricvote.yaml:", err)
		}
	}
	return envConfigFrom(v)
}

func envConfigFrom(v *viper.Viper) EnvConfig {
	perPage := v.GetInt("per_page")
	if perPage <= 0 || perPage > MaxPerPage {
		fmt.Println("Using default value for RUBRICVOTE_PER_PAGE")
		perPage = DefaultPerPage
	}
	return EnvConfig{
		DatabaseURL:   v.GetString("database_url"),
		MigrationsURL: v.GetString("migrations_url"),
		Port:          v.GetString("port"),
		NonceKey:      []byte(v.GetString("nonce_key")),
		PerPage:       perPage,
		Debug:         v.GetBool("debug"),
	}
}
