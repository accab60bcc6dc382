package interfaces

// LocaleService reports the locale in effect for the current request and the
// locale whose values live on the canonical record row.
type LocaleService interface {
	CurrentLocale() string
	DefaultLocale() string
}
