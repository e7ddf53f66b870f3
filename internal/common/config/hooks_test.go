package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookTarget struct {
	Ids      []int
	Names    []string
	Duration time.Duration
}

func TestParseIntList(t *testing.T) {
	ids, err := ParseIntList(" 3, 17,,22 ")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 17, 22}, ids)

	ids, err = ParseIntList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIntList("1,x")
	assert.Error(t, err)
}

func TestCustomHooks(t *testing.T) {
	v := viper.New()
	v.Set("ids", "1,2")
	v.Set("names", "a,b")
	v.Set("duration", "90s")

	var target hookTarget
	require.NoError(t, v.Unmarshal(&target, CustomHooks...))
	assert.Equal(t, []int{1, 2}, target.Ids)
	assert.Equal(t, []string{"a", "b"}, target.Names)
	assert.Equal(t, 90*time.Second, target.Duration)
}

type validated struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=1"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validated{Name: "x", Count: 1}))

	err := Validate(validated{Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "Count")
	LogValidationErrors(err)
}
