package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the matchgram command.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	// ExitFindings means the command ran but found problems, such as rules
	// that do not compile.
	ExitFindings = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution. Code is the
// process exit code; zero means ExitFailure.
type CommandError struct {
	Command string
	Err     error
	Code    int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError exiting with ExitFailure.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// NewFindingsError reports that command completed with findings.
func NewFindingsError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
		Code:    ExitFindings,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}
	return ExitFailure
}
