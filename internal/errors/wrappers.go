package errors

import (
	"fmt"
	"strings"
)

// NoDeployMethodFound reports a wrapper without a deployment factory
func NoDeployMethodFound(wrapper string) *BaseError {
	return Newf(NoDeployMethodFoundCode, "no deploy method found on wrapper '%s'", wrapper).
		WithContext("wrapper", wrapper).
		WithSuggestions(
			"Ensure the binding was generated with bytecode so a Deploy function exists",
			"Check that the deploy rule in abitest.toml matches the factory name",
		)
}

// AmbiguousDeployMethod reports more than one deployment factory candidate
func AmbiguousDeployMethod(wrapper string, candidates []string) *BaseError {
	return Newf(AmbiguousDeployMethodCode, "ambiguous deploy method on wrapper '%s': %s",
		wrapper, strings.Join(candidates, ", ")).
		WithContext("wrapper", wrapper).
		WithContext("candidates", candidates).
		WithSuggestions("Narrow the deploy rule in abitest.toml so it matches exactly one factory")
}

// UnrenderableType reports a parameter type with no default literal for one method
func UnrenderableType(method, typeName, source string) *BaseError {
	return Newf(UnrenderableTypeCode, "method '%s': no default literal for type '%s'", method, typeName).
		WithLocation(ParseLocation(source)).
		WithContext("method", method).
		WithContext("type", typeName).
		WithSuggestions(fmt.Sprintf("Add a [defaults] or [inject] entry for %q to abitest.toml", typeName))
}

// WrapParseError wraps an error with a "failed to parse" message
func WrapParseError(item string, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause)
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
