package common

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/htapbench/internal/common/config"
	log "github.com/armadaproject/htapbench/internal/common/logging"
)

const envPrefix = "HTAPBENCH"

// LoadConfig reads config.yaml from defaultPath, merges any user supplied files over it, applies HTAPBENCH_*
// environment overrides and decodes the result into config.
func LoadConfig(config interface{}, defaultPath string, overrideConfigs []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read default config from %s", defaultPath)
	}
	log.Infof("Read base config from %s", v.ConfigFileUsed())

	for _, overrideConfig := range overrideConfigs {
		v.SetConfigFile(overrideConfig)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to merge config from %s", overrideConfig)
		}
		log.Infof("Read config from %s", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return nil, errors.WithStack(err)
	}
	return v, nil
}

// BindFlags makes every flag that was explicitly set on the command line win over file and env values.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, config interface{}) error {
	var bindErr error
	flags.Visit(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(f.Name, f)
	})
	if bindErr != nil {
		return errors.WithStack(bindErr)
	}
	return errors.WithStack(v.Unmarshal(config, commonconfig.CustomHooks...))
}
