package locale

import "strings"

// Context tracks the active and default locale for a single record instance.
// It holds no I/O and is not safe for concurrent use.
type Context struct {
	active      string
	defaultCode string
}

// NewContext builds a context whose active locale starts at current. An empty
// current locale starts the context on the default locale.
func NewContext(defaultCode, current string) *Context {
	defaultCode = Normalize(defaultCode)
	current = Normalize(current)
	if current == "" {
		current = defaultCode
	}
	return &Context{active: current, defaultCode: defaultCode}
}

// Active returns the locale currently in effect.
func (c *Context) Active() string {
	if c == nil {
		return ""
	}
	return c.active
}

// Default returns the canonical locale.
func (c *Context) Default() string {
	if c == nil {
		return ""
	}
	return c.defaultCode
}

// SetActive switches the active locale and returns the previous one. An empty
// code resets the context to the default locale.
func (c *Context) SetActive(code string) string {
	previous := c.active
	code = Normalize(code)
	if code == "" {
		code = c.defaultCode
	}
	c.active = code
	return previous
}

// ShouldTranslate reports whether reads and writes must be routed through an
// overlay, i.e. the active locale differs from the default.
func (c *Context) ShouldTranslate() bool {
	if c == nil {
		return false
	}
	return c.active != c.defaultCode
}

// IsDefault reports whether code names the default locale.
func (c *Context) IsDefault(code string) bool {
	return Normalize(code) == c.Default()
}

// Resolve returns code when provided, otherwise the active locale.
func (c *Context) Resolve(code string) string {
	if normalized := Normalize(code); normalized != "" {
		return normalized
	}
	return c.Active()
}

// Normalize trims surrounding whitespace from a locale code. No collation or
// case folding is applied.
func Normalize(code string) string {
	return strings.TrimSpace(code)
}
