package commands

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/internal/translate"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

const reindexMessageType = "translatable.translations.reindex"

// Reindexer rebuilds index rows of a model type from stored blobs.
type Reindexer interface {
	Reindex(ctx context.Context, modelType string) (translate.ReindexResult, error)
}

// ReindexTranslationsCommand rebuilds the index of one or more model types.
type ReindexTranslationsCommand struct {
	ModelTypes []string `json:"model_types"`
}

// Type implements command.Message.
func (ReindexTranslationsCommand) Type() string { return reindexMessageType }

// Validate satisfies command.Message.
func (m ReindexTranslationsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ModelTypes, validation.Required, validation.Each(validation.Required, validation.By(notBlank))),
	)
}

// ReindexHandler executes ReindexTranslationsCommand.
type ReindexHandler struct {
	reindexer Reindexer
	logger    interfaces.Logger
	timeout   time.Duration
}

// NewReindexHandler builds a reindex handler.
func NewReindexHandler(reindexer Reindexer, logger interfaces.Logger) *ReindexHandler {
	return &ReindexHandler{reindexer: reindexer, logger: EnsureLogger(logger), timeout: DefaultCommandTimeout}
}

// Execute satisfies command.Commander[ReindexTranslationsCommand].
func (h *ReindexHandler) Execute(ctx context.Context, msg ReindexTranslationsCommand) error {
	_, err := h.Run(ctx, msg)
	return err
}

// Run executes the command and reports the work done per model type.
func (h *ReindexHandler) Run(ctx context.Context, msg ReindexTranslationsCommand) (map[string]translate.ReindexResult, error) {
	results := make(map[string]translate.ReindexResult, len(msg.ModelTypes))
	if err := WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return results, err
	}
	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	for _, modelType := range msg.ModelTypes {
		if err := ctx.Err(); err != nil {
			return results, WrapContextError(err)
		}
		result, err := h.reindexer.Reindex(ctx, modelType)
		if err != nil {
			return results, WrapExecuteError(err)
		}
		results[modelType] = result
		logging.WithFields(h.logger, map[string]any{
			"model_type": modelType,
			"blobs":      result.Blobs,
			"entries":    result.Entries,
			"cleared":    result.Cleared,
		}).Info("translate.command.reindex.completed")
	}
	return results, nil
}
