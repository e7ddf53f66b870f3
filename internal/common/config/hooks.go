package config

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// CustomHooks replaces viper's default decode hooks, so the defaults are included again here.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		IntSliceHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)),
}

// IntSliceHookFunc decodes comma-separated strings such as "3,17" (as produced by env vars and string flags)
// into []int.
func IntSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t != reflect.TypeOf([]int{}) {
			return data, nil
		}
		return ParseIntList(data.(string))
	}
}

// ParseIntList parses a comma-separated list of integers. Blank entries are skipped.
func ParseIntList(s string) ([]int, error) {
	result := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid integer %q", part)
		}
		result = append(result, v)
	}
	return result, nil
}
