package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/utils"
)

// Notifier receives domain events after the write that produced them has
// committed. Implementations must not block.
type Notifier interface {
	Notify(eventType string, payload map[string]string)
}

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func requireCaller(callerId domain.UserId) error {
	if callerId == "" {
		return errors.Auth("Please sign-in")
	}
	return nil
}

func validateStruct(v any) error {
	if err := utils.Validator().Struct(v); err != nil {
		return errors.Validation(fmt.Sprintf("Invalid fields: %s", utils.FieldErrors(err)))
	}
	return nil
}

// sanitizeBounded cleans user text and enforces a rune limit.
func sanitizeBounded(field, text string, maxRunes int) (string, error) {
	clean := utils.SanitizeText(text)
	if utf8.RuneCountInString(clean) > maxRunes {
		return "", errors.Validation(fmt.Sprintf("%s must be at most %d characters", field, maxRunes))
	}
	return clean, nil
}
