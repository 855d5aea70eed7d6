package config

import (
	"errors"
	"fmt"
)

// ValidationError reports a semantic problem the schema cannot express.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks cross-field rules after defaults have been applied.
func (c *RiyuConfig) Validate() error {
	var errs []error
	s := &c.Spec

	if err := s.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch s.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if s.Store.Path == "" {
			errs = append(errs, &ValidationError{Field: "store.path", Message: "required for file backend"})
		}
	case StoreRedis:
		if s.Store.RedisAddr == "" {
			errs = append(errs, &ValidationError{Field: "store.redisAddr", Message: "required for redis backend"})
		}
	default:
		errs = append(errs, &ValidationError{Field: "store.backend", Message: "must be one of: memory, file, redis", Value: s.Store.Backend})
	}
	if s.Audio.PlaybackSampleRate < s.Audio.CaptureSampleRate {
		errs = append(errs, &ValidationError{
			Field:   "audio.playbackSampleRate",
			Message: "must not be lower than captureSampleRate",
			Value:   s.Audio.PlaybackSampleRate,
		})
	}
	return errors.Join(errs...)
}
