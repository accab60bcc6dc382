package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-translatable/internal/identity"
	"github.com/goliatone/go-translatable/internal/translate"
)

type dispatcherTestCommand struct {
	ID string
}

func (dispatcherTestCommand) Type() string { return "translatable.test.dispatcher" }

func (dispatcherTestCommand) Validate() error { return nil }

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	var attempts int
	handler := NewHandler(func(ctx context.Context, _ dispatcherTestCommand) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, WithTimeout[dispatcherTestCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), dispatcherTestCommand{ID: "abc"}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts (initial + retry), got %d", attempts)
	}
}

type flakyPurger struct {
	failures int
	calls    int
}

func (p *flakyPurger) Purge(_ context.Context, key identity.ModelKey) (translate.PurgeResult, error) {
	p.calls++
	if p.calls <= p.failures {
		return translate.PurgeResult{}, errors.New("database is locked")
	}
	return translate.PurgeResult{Blobs: 2, Indexes: 1}, nil
}

func TestDispatcherPurgeRetryExhaustion(t *testing.T) {
	purger := &flakyPurger{failures: 5}
	sub := dispatcher.SubscribeCommand(NewPurgeHandler(purger, nil), runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), PurgeTranslationsCommand{ModelType: "country", ModelID: "1"})
	if err == nil {
		t.Fatal("expected dispatcher to return error after exhausting retries")
	}
	if purger.calls != 3 {
		t.Fatalf("expected 3 attempts (initial + 2 retries), got %d", purger.calls)
	}
}
