// Package validator collects configuration findings and reports them.
//
// A finding is an [Issue] with a [Severity]: errors stop device commands
// from running, warnings describe settings that work but are likely
// mistakes, and info notes explain a default that is in effect. A [Result]
// gathers the issues for one configuration and a [Reporter] prints them as
// colored text or JSON.
//
// # Basic Usage
//
//	result := &validator.Result{}
//	if device == "" {
//		result.AddError("store.device_path", "is required", nil)
//	}
//	if err := validator.NewReporter(os.Stdout, validator.FormatText).Report(result); err != nil {
//		return err
//	}
package validator
