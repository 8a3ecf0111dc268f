package errors

import "strings"

// suggestions maps error codes to remediation hints shown alongside the error.
var suggestions = map[string][]string{
	ErrConfigNotFound: {
		"Run 'spectrafit init' to create a default fit.yaml",
		"Pass the file explicitly with --config <path>",
	},
	ErrConfigParseFailed: {
		"Check the YAML indentation and that lists use '- ' items",
	},
	ErrConfigMissingDataset: {
		"Set data.path in the run configuration or pass a dataset to the sampler",
	},
	ErrConfigMissingModel: {
		"Set model.name to one of the registered models (pl, ecpl)",
	},
	ErrConfigInvalidLabels: {
		"Provide at most one label per entry of the initial parameter vector",
	},
	ErrConfigUnknownModel: {
		"Run 'spectrafit version' to list the registered models",
	},
	ErrDataMissingColumn: {
		"Tables need energy, flux and flux_error (or flux_error_lo and flux_error_hi) columns",
	},
	ErrDataInvalidUnit: {
		"Declare units in the header, e.g. 'energy [TeV]' or 'flux [1/(cm2 s TeV)]'",
	},
	ErrDataInvalidUpperLimit: {
		"Upper-limit flags must be 0/1 or True/False",
	},
	ErrModelTypeMismatch: {
		"Return model values in the flux type of the data table, or tag them with that type",
		"Use dataset.SEDConversion to move between differential and energy-weighted fluxes",
	},
	ErrSamplerNotPrepared: {
		"Call Prepare before Run, or use RunSampler to do both",
	},
}

// AttachSuggestions appends the registered hints for err.Code.
func AttachSuggestions(err *FitError) *FitError {
	if err == nil {
		return nil
	}
	if hints, ok := suggestions[err.Code]; ok {
		err.Suggestions = append(err.Suggestions, hints...)
	}
	return err
}

// GetSuggestions returns the registered hints for a code.
func GetSuggestions(code string) []string {
	hints := suggestions[code]
	out := make([]string, len(hints))
	copy(out, hints)
	return out
}

// Format renders an error for terminal display.
// FitErrors show code, message, context, cause and suggestions on separate lines.
func Format(err error) string {
	if err == nil {
		return ""
	}
	fe, ok := AsFitError(err)
	if !ok {
		return "Error: " + err.Error()
	}

	var sb strings.Builder
	sb.WriteString("ERROR [")
	sb.WriteString(fe.Code)
	sb.WriteString("]: ")
	sb.WriteString(fe.Message)
	if fe.HasContext() {
		sb.WriteString("\n  ")
		sb.WriteString(fe.ContextString())
	}
	if fe.Cause != nil {
		sb.WriteString("\n  Cause: ")
		sb.WriteString(fe.Cause.Error())
	}
	for _, s := range fe.Suggestions {
		sb.WriteString("\n  → ")
		sb.WriteString(s)
	}
	return sb.String()
}
