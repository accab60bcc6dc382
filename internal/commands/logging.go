package commands

import (
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// CommandLogger returns the commands module logger tagged with the command
// name.
func CommandLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	fields := map[string]any{"component": "command"}
	if name != "" {
		fields["command_name"] = name
	}
	return logging.WithFields(logging.CommandsLogger(provider), fields)
}
