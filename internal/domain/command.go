package domain

import "strings"

// CommandType labels what a shell command is trying to do.
type CommandType string

const (
	CommandPackageInstall CommandType = "package_install"
	CommandFile           CommandType = "file_operation"
	CommandGit            CommandType = "git_operation"
	CommandSystem         CommandType = "system_command"
	CommandBuild          CommandType = "build_command"
	CommandTest           CommandType = "test_command"
	CommandDeployment     CommandType = "deployment"
	CommandNetwork        CommandType = "network_command"
	CommandDirectory      CommandType = "directory_operation"
	CommandSearch         CommandType = "search_operation"
	CommandShell          CommandType = "shell_command"
)

// CommandTypes returns every command type in enumeration order.
// The response filter walks its pattern tables in this order, so earlier
// types win when patterns overlap.
func CommandTypes() []CommandType {
	return []CommandType{
		CommandPackageInstall,
		CommandFile,
		CommandGit,
		CommandSystem,
		CommandBuild,
		CommandTest,
		CommandDeployment,
		CommandNetwork,
		CommandDirectory,
		CommandSearch,
		CommandShell,
	}
}

// ParseCommandType resolves the wire name of a command type.
func ParseCommandType(value string) (CommandType, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, t := range CommandTypes() {
		if string(t) == value {
			return t, true
		}
	}
	return "", false
}

// Priority ranks how urgently an intercepted command needs a web equivalent.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority resolves the wire name of a priority.
func ParsePriority(value string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityCritical:
		return PriorityCritical, true
	default:
		return "", false
	}
}
