package common

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from the default path, or from
// userSpecifiedPath when given, and unmarshals it into config. A missing
// config file is not an error; defaults and environment apply.
func LoadConfig(config interface{}, defaultPath string, userSpecifiedPath string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(defaultPath)
	if userSpecifiedPath != "" {
		viper.SetConfigFile(userSpecifiedPath)
	}
	viper.SetEnvPrefix("OPENBATCH")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound || userSpecifiedPath != "" {
			log.Error(err)
			os.Exit(-1)
		}
	}
	if err := viper.Unmarshal(config); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

// BindCommandlineArguments exposes every registered command line flag
// through viper so flags can override file and environment settings.
func BindCommandlineArguments(flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}
