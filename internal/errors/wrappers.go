package errors

import (
	"fmt"
	"strings"
)

// Common error constructors used across the framework

// ImproperConfiguration reports an invalid module or provider declaration.
// sentinel is kept as the cause so callers can match it with errors.Is.
func ImproperConfiguration(module, message string, sentinel error) *BaseError {
	return Wrap(ConfigurationErrorCode, message, sentinel).InModule(module)
}

// CyclicDependency reports an import cycle between modules
func CyclicDependency(path []string, sentinel error) *BaseError {
	return Wrap(CyclicDependencyErrorCode, "modules import each other: "+strings.Join(path, " -> "), sentinel).
		WithContext("cycle", path).
		WithSuggestions(
			"Move the shared providers into a separate module imported by both",
			"Export the provider from the lower-level module instead of importing upwards",
		)
}

// WrapProviderError wraps an invalid provider declaration
func WrapProviderError(module, provider string, cause error) *BaseError {
	return Wrap(ProviderErrorCode, "invalid provider", cause).
		WithComponent(Component{Module: module, Kind: "provider", Name: provider})
}

// WrapDependencyError wraps dependency injection errors
func WrapDependencyError(cause error, sentinel error) *BaseError {
	return Wrap(DependencyErrorCode, "failed to build the dependency graph", fmt.Errorf("%w: %w", sentinel, cause)).
		WithSuggestions(
			"Check that every constructor parameter is provided by an imported module",
			"Mark providers used outside their module with Exported()",
		)
}

// WrapHookError wraps a failing lifecycle hook
func WrapHookError(module, hook string, cause error, sentinel error) *BaseError {
	return Wrap(HookErrorCode, "hook returned an error", fmt.Errorf("%w: %w", sentinel, cause)).
		WithComponent(Component{Module: module, Kind: "hook", Name: hook})
}

// WrapRouteError wraps an invalid route declaration
func WrapRouteError(module, route string, cause error) *BaseError {
	return Wrap(RouteErrorCode, "invalid route", cause).
		WithComponent(Component{Module: module, Kind: "route", Name: route})
}

// WrapCommandError wraps an invalid or failing command
func WrapCommandError(module, command string, cause error) *BaseError {
	return Wrap(CommandErrorCode, "command failed", cause).
		WithComponent(Component{Module: module, Kind: "command", Name: command})
}

// WrapTemplateError wraps template processing errors
func WrapTemplateError(templateName, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s template '%s'", operation, templateName)
	return Wrap(TemplateErrorCode, message, cause).
		WithContext("template", templateName).
		WithContext("operation", operation)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapGenerateError wraps an error with a "failed to generate" message
func WrapGenerateError(item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", item), cause).
		WithContext("target", item)
}
