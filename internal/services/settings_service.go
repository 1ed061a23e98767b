package services

import (
	"context"
	"fmt"
	"log"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

// ISettingsService serves persisted key/value settings from an in-memory cache.
// Values are stored as strings and parsed on read; anything unparsable yields the default.
type ISettingsService interface {
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
	Get(key string) (string, bool)
	All() map[string]string
	GetString(key string, defaultValue string) string
	GetInt(key string, defaultValue int) int
	GetFloat64(key string, defaultValue float64) float64
	GetDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal
	GetIntList(key string, defaultValue []int) []int
	Set(ctx context.Context, key, value string) error
}

const settingsUpdateChannel = "config_updates"

// Settings that may be changed through Set.
var writableSettingPrefixes = []string{"OfferRandomizer_", "RateLimit_"}

type settingsService struct {
	store store.SettingsStore
	rdb   *redis.Client
	cache map[string]string
	mutex sync.RWMutex
}

// NewSettingsService loads the settings once and, when rdb is given, keeps listening for
// reload notifications until ctx is done.
func NewSettingsService(ctx context.Context, st store.SettingsStore, rdb *redis.Client) ISettingsService {
	s := &settingsService{
		store: st,
		rdb:   rdb,
		cache: make(map[string]string),
	}
	if err := s.Load(ctx); err != nil {
		log.Printf("WARNING: Failed to load settings from the store: %v. Using built-in defaults", err)
	}
	if rdb != nil {
		go func() {
			if err := s.SubscribeToChanges(ctx); err != nil {
				log.Printf("CRITICAL: Settings Pub/Sub listener stopped: %v", err)
			}
		}()
	}
	return s
}

// Load replaces the cache with the current contents of the store.
func (s *settingsService) Load(ctx context.Context) error {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}

	newCache := make(map[string]string, len(settings))
	for _, setting := range settings {
		newCache[setting.Key] = setting.Value
	}

	s.mutex.Lock()
	s.cache = newCache
	s.mutex.Unlock()

	log.Printf("Loaded %d entries into settings cache.", len(newCache))
	return nil
}

func (s *settingsService) Get(key string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	val, ok := s.cache[key]
	return val, ok
}

func (s *settingsService) All() map[string]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return maps.Clone(s.cache)
}

func (s *settingsService) GetString(key string, defaultValue string) string {
	val, ok := s.Get(key)
	if !ok {
		return defaultValue
	}
	return val
}

func (s *settingsService) GetInt(key string, defaultValue int) int {
	val, ok := s.Get(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Printf("Warning: Setting '%s' value %q is not an integer, using default %d.", key, val, defaultValue)
		return defaultValue
	}
	return n
}

func (s *settingsService) GetFloat64(key string, defaultValue float64) float64 {
	val, ok := s.Get(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		log.Printf("Warning: Setting '%s' value %q is not a number, using default %v.", key, val, defaultValue)
		return defaultValue
	}
	return f
}

func (s *settingsService) GetDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	val, ok := s.Get(key)
	if !ok {
		return defaultValue
	}
	d, err := decimal.NewFromString(strings.TrimSpace(val))
	if err != nil {
		log.Printf("Warning: Setting '%s' value %q is not a decimal, using default %s.", key, val, defaultValue)
		return defaultValue
	}
	return d
}

// GetIntList parses a comma separated list, skipping parts that are not integers.
func (s *settingsService) GetIntList(key string, defaultValue []int) []int {
	val, ok := s.Get(key)
	if !ok {
		return defaultValue
	}
	var list []int
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Printf("Warning: Setting '%s' has a non-integer part %q, skipping it.", key, part)
			continue
		}
		list = append(list, n)
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

// SubscribeToChanges reloads the cache whenever a notification arrives on Redis Pub/Sub.
func (s *settingsService) SubscribeToChanges(ctx context.Context) error {
	if s.rdb == nil {
		log.Println("Redis client not configured, cannot subscribe to settings changes.")
		return nil
	}

	pubsub := s.rdb.Subscribe(ctx, settingsUpdateChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to receive confirmation from Redis Pub/Sub subscription: %w", err)
	}

	ch := pubsub.Channel()
	log.Println("Subscribed to Redis channel for settings updates:", settingsUpdateChannel)

	for {
		select {
		case <-ctx.Done():
			log.Println("Settings Pub/Sub listener stopped.")
			return nil
		case msg, ok := <-ch:
			if !ok {
				log.Println("Settings Pub/Sub channel closed.")
				return nil
			}
			log.Printf("Received settings update notification on channel %s: %s", msg.Channel, msg.Payload)
			if err := s.Load(ctx); err != nil {
				log.Printf("ERROR reloading settings after notification: %v", err)
			}
		}
	}
}

// Set persists a setting, applies it locally and tells the other instances to reload.
func (s *settingsService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if !isWritableSetting(key) {
		return invalidArgument("Setting '%s' cannot be changed.", key)
	}

	if err := s.store.PutSetting(ctx, key, value); err != nil {
		return fmt.Errorf("%w: failed to store setting '%s': %w", ErrUnexpected, key, err)
	}

	s.mutex.Lock()
	s.cache[key] = value
	s.mutex.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, settingsUpdateChannel, key).Err(); err != nil {
			log.Printf("Warning: Failed to publish settings update notification for key '%s': %v", key, err)
		}
	}

	log.Printf("Updated setting '%s'.", key)
	return nil
}

func isWritableSetting(key string) bool {
	for _, prefix := range writableSettingPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}
