package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"repo_path":                ".",
		"commands_dir":             "commands",
		"support_dir":              "support",
		"rules_file":               "support/01-forbidden.md",
		"mcp_config":               "mcp.json",
		"model":                    "gpt-4o",
		"scope_invention_severity": "warning",
		"validate_inputs":          true,
		"validate_outputs":         true,
		"strict_ids":               false,
		"show_progress":            true,
		"log_level":                "warn",
		"log_file":                 "",
	}
}
