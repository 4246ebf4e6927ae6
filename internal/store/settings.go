package store

import (
	"time"

	"go.uber.org/multierr"

	"github.com/dukerupert/weeklycart/internal/model"
)

// SettingsStore persists the auto-reset configuration. The canonical shape is
// a non-empty set of weekdays under "resetDays"; installations written by
// older versions carried a single "resetDay" index, which is upgraded once on
// first load and then deleted.
type SettingsStore struct {
	kv *KVStore
}

func NewSettingsStore(kv *KVStore) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// AutoReset loads the current configuration, applying defaults for keys that
// have never been written.
func (s *SettingsStore) AutoReset() (model.AutoResetConfig, error) {
	cfg := model.AutoResetConfig{
		Enabled:   true,
		ResetDays: append([]int(nil), model.DefaultResetDays...),
		ResetTime: model.DefaultResetTime,
	}

	if _, err := s.kv.Get(keyAutoReset, &cfg.Enabled); err != nil {
		return cfg, err
	}

	found, err := s.kv.Get(keyResetDays, &cfg.ResetDays)
	if err != nil {
		return cfg, err
	}
	if !found {
		if err := s.upgradeLegacyDay(&cfg); err != nil {
			return cfg, err
		}
	}

	if _, err := s.kv.Get(keyResetTime, &cfg.ResetTime); err != nil {
		return cfg, err
	}
	if _, err := s.kv.Get(keyLastResetDate, &cfg.LastResetDate); err != nil {
		return cfg, err
	}

	cfg.Normalize()
	return cfg, nil
}

// SetAutoReset stores a new configuration. The last-reset stamp is owned by
// the reset path and is not written here.
func (s *SettingsStore) SetAutoReset(cfg model.AutoResetConfig) error {
	cfg.Normalize()
	return multierr.Combine(
		s.kv.Set(keyAutoReset, cfg.Enabled),
		s.kv.Set(keyResetDays, cfg.ResetDays),
		s.kv.Set(keyResetTime, cfg.ResetTime),
	)
}

// LastResetDate reads the stamp written by the most recent reset.
func (s *SettingsStore) LastResetDate() (time.Time, error) {
	var t time.Time
	if _, err := s.kv.Get(keyLastResetDate, &t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// upgradeLegacyDay migrates the single-day config shape to the weekday set.
func (s *SettingsStore) upgradeLegacyDay(cfg *model.AutoResetConfig) error {
	var day int
	found, err := s.kv.Get(keyLegacyDay, &day)
	if err != nil || !found {
		return err
	}
	cfg.ResetDays = []int{day}
	cfg.Normalize()
	if err := s.kv.Set(keyResetDays, cfg.ResetDays); err != nil {
		return err
	}
	return s.kv.Delete(keyLegacyDay)
}
