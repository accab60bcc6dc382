package commands

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/translate"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

const purgeMessageType = "translatable.translations.purge"

// Purger removes every translation row of a record.
type Purger interface {
	Purge(ctx context.Context, key identity.ModelKey) (translate.PurgeResult, error)
}

// PurgeTranslationsCommand deletes the blobs and index rows of one record.
type PurgeTranslationsCommand struct {
	ModelType string `json:"model_type"`
	ModelID   string `json:"model_id"`
}

// Type implements command.Message.
func (PurgeTranslationsCommand) Type() string { return purgeMessageType }

// Validate satisfies command.Message.
func (m PurgeTranslationsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ModelType, validation.Required, validation.By(notBlank)),
		validation.Field(&m.ModelID, validation.Required, validation.By(notBlank)),
	)
}

// PurgeHandler executes PurgeTranslationsCommand.
type PurgeHandler struct {
	purger  Purger
	logger  interfaces.Logger
	timeout time.Duration
}

// NewPurgeHandler builds a purge handler.
func NewPurgeHandler(purger Purger, logger interfaces.Logger) *PurgeHandler {
	return &PurgeHandler{purger: purger, logger: EnsureLogger(logger), timeout: DefaultCommandTimeout}
}

// Execute satisfies command.Commander[PurgeTranslationsCommand].
func (h *PurgeHandler) Execute(ctx context.Context, msg PurgeTranslationsCommand) error {
	_, err := h.Run(ctx, msg)
	return err
}

// Run executes the command and reports the removed rows.
func (h *PurgeHandler) Run(ctx context.Context, msg PurgeTranslationsCommand) (translate.PurgeResult, error) {
	var result translate.PurgeResult
	if err := WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return result, err
	}
	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return result, WrapContextError(err)
	}

	key := identity.NewModelKey(msg.ModelType, msg.ModelID)
	result, err := h.purger.Purge(ctx, key)
	if err != nil {
		return result, WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"model_type": key.Type,
		"model_id":   key.ID,
		"blobs":      result.Blobs,
		"indexes":    result.Indexes,
	}).Info("translate.command.purge.completed")
	return result, nil
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.NewError("translatable.command.blank", "must not be blank")
	}
	return nil
}
