package locale

import (
	"sync/atomic"

	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// StaticService is a LocaleService with a fixed default locale and a
// concurrency-safe current locale.
type StaticService struct {
	defaultCode string
	current     atomic.Value
}

var _ interfaces.LocaleService = (*StaticService)(nil)

// NewStaticService constructs a service seeded with the default and current
// locales. An empty current locale falls back to the default.
func NewStaticService(defaultCode, current string) *StaticService {
	svc := &StaticService{defaultCode: Normalize(defaultCode)}
	svc.SetCurrent(current)
	return svc
}

// CurrentLocale reports the locale in effect for new record instances.
func (s *StaticService) CurrentLocale() string {
	if s == nil {
		return ""
	}
	if value, ok := s.current.Load().(string); ok {
		return value
	}
	return s.defaultCode
}

// DefaultLocale reports the canonical locale.
func (s *StaticService) DefaultLocale() string {
	if s == nil {
		return ""
	}
	return s.defaultCode
}

// SetCurrent updates the current locale.
func (s *StaticService) SetCurrent(code string) {
	if s == nil {
		return
	}
	code = Normalize(code)
	if code == "" {
		code = s.defaultCode
	}
	s.current.Store(code)
}
