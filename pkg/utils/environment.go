package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads <path>/.env into the process environment, when present,
// and lets viper resolve every key from the environment.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logrus.Warnf("[CONFIG] Failed to load %s: %v", envFile, err)
		}
	}
	viper.AutomaticEnv()
}
