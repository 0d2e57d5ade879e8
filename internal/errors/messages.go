package errors

import (
	"fmt"
	"strings"
)

// RulesFileNotFound is returned when the guardrail rules document is missing.
func RulesFileNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("rules file not found: %s", path),
		"Create the rules document with a '## Forbidden Actions' section",
		"Or point rules_file at an existing document in .agentpipe/config.json",
		"Run 'agentpipe validate' to check the repository layout",
	)
}

// EmptyRuleSet is returned when the rules document yields no constraints.
func EmptyRuleSet(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("rules file contains no constraints: %s", path),
		"Add '- ❌ <rule>' lines under numbered '### N. <category>' subsections of '## Forbidden Actions'",
		"Add '- ✅ <rule>' lines for required behavior",
	)
}

// CommandsDirNotFound is returned when the command documents directory is missing.
func CommandsDirNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("commands directory not found: %s", path),
		"Create the directory and add markdown command documents",
		"Or set commands_dir in .agentpipe/config.json",
	)
}

// AgentNotFound is returned when an agent id is not in the catalog.
func AgentNotFound(id string, known []string) *CLIError {
	remediation := []string{"Run 'agentpipe agents' to list available agents"}
	if len(known) > 0 && len(known) <= 10 {
		remediation = append(remediation, "Known agents: "+strings.Join(known, ", "))
	}
	return NewArgumentError(fmt.Sprintf("agent not found: %s", id), remediation...)
}

// InvalidPhase is returned for an unknown phase name.
func InvalidPhase(name string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid phase: %q", name),
		"--phase <"+strings.Join(valid, "|")+">",
		"Use one of the listed phase names",
	)
}

// InvalidFormat is returned for an unsupported --format value.
func InvalidFormat(format string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unsupported output format: %q", format),
		"--format <"+strings.Join(valid, "|")+">",
	)
}

// ConfigParseError is returned when a config file cannot be loaded.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config %s", path),
		"Check the file is valid JSON",
		"Run 'agentpipe validate' to see which values are rejected",
	)
}

// MissingInput is returned when a command needs text but none was given.
func MissingInput(usage string) *CLIError {
	return NewArgumentErrorWithUsage(
		"no input text provided",
		usage,
		"Pass the text as an argument or use '-' to read from stdin",
	)
}
