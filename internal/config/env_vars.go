package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar   = "PORT"
	hostEnvVar   = "HOST"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	envVar       = "ENV"
	logLevelVar  = "LOG_LEVEL"

	// DevEnv is the environment name that enables developer-only capabilities.
	// It must be set explicitly.
	DevEnv = "DEV"
	// ProdEnv is assumed when ENV is unset.
	ProdEnv = "PROD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetHost is the interface the server binds to. Loopback unless HOST says otherwise.
func (EnvVars) GetHost() string {
	return GetEnv(hostEnvVar, "127.0.0.1")
}

func (e EnvVars) GetListenAddr() string {
	return e.GetHost() + e.GetPort()
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Sprinkler Business")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, ProdEnv))
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == DevEnv
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(envVar string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
