package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindServeFlags binds the serve flags to their viper keys. The legacy
// MONGOURI and PORT variables are still honored.
func bindServeFlags(command *cobra.Command) {
	flags := command.Flags()

	mustBindPFlag("http.port", flags.Lookup("port"))
	mustBindEnv("http.port", "PROJECTBOARD_HTTP_PORT", "PORT")
	mustBindPFlag("http.readTimeout", flags.Lookup("http-read-timeout"))
	mustBindPFlag("http.writeTimeout", flags.Lookup("http-write-timeout"))
	mustBindPFlag("http.requestTimeout", flags.Lookup("request-timeout"))
	mustBindPFlag("http.corsAllowedOrigins", flags.Lookup("cors-allowed-origins"))
	mustBindPFlag("http.corsAllowedHeaders", flags.Lookup("cors-allowed-headers"))

	mustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
	mustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
	mustBindEnv("datastore.uri", "PROJECTBOARD_DATASTORE_URI", "MONGOURI")
	mustBindPFlag("datastore.database", flags.Lookup("datastore-database"))
	mustBindPFlag("datastore.connectTimeout", flags.Lookup("datastore-connect-timeout"))
	mustBindPFlag("datastore.maxConnectRetries", flags.Lookup("datastore-max-connect-retries"))

	mustBindPFlag("log.format", flags.Lookup("log-format"))
	mustBindPFlag("log.level", flags.Lookup("log-level"))

	mustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func mustBindEnv(input ...string) {
	if err := viper.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}
