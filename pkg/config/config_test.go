package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DefaultSlots, cfg.Scheduler.Slots)
	assert.Equal(t, StudentScopeDepartment, cfg.Scheduler.StudentScope)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.RunTimeout)
	assert.Equal(t, 2, cfg.Scheduler.BatchWorkers)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestFromViperCustomSlots(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"SCHEDULER_SLOTS":       "08:30, 10:00 ,13:30",
		"SCHEDULER_RUN_TIMEOUT": "5s",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"08:30", "10:00", "13:30"}, cfg.Scheduler.Slots)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.RunTimeout)
}

func TestFromViperRejectsBadSlots(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"SCHEDULER_SLOTS": "10:00,09:00"}))
	require.Error(t, err)

	_, err = fromViper(newTestViper(map[string]any{"SCHEDULER_SLOTS": "9am"}))
	require.Error(t, err)
}

func TestValidateSlotsRequiresZeroPadding(t *testing.T) {
	err := validateSlots([]string{"9:00", "10:00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero-padded")

	assert.NoError(t, validateSlots([]string{"09:00", "10:00"}))
}

func TestFromViperRejectsUnknownScope(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"SCHEDULER_STUDENT_SCOPE": "faculty"}))
	require.Error(t, err)

	cfg, err := fromViper(newTestViper(map[string]any{"SCHEDULER_STUDENT_SCOPE": "Institution"}))
	require.NoError(t, err)
	assert.Equal(t, StudentScopeInstitution, cfg.Scheduler.StudentScope)
}

func TestFromViperRedisAndJWT(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"REDIS_ENABLED":      true,
		"REDIS_DIAL_TIMEOUT": "250ms",
		"JWT_ISSUER":         "accounts",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.DialTimeout)
	assert.Equal(t, "accounts", cfg.JWT.Issuer)
}
