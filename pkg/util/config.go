package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads config.yaml from ./data/ and seeds the defaults every
// component reads through viper. Feed URLs default to empty: a feed without a
// URL is left stopped instead of polling a bogus endpoint.
func ReadConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")

	SetConfigDefaults()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func SetConfigDefaults() {
	viper.SetDefault("FEED_EDS_URL", "")
	viper.SetDefault("FEED_CUSTOM_AREAS_URL", "")
	viper.SetDefault("FEED_SPEED_LIMITS_URL", "")
	viper.SetDefault("FEED_AUTO_START", true)

	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)
}
