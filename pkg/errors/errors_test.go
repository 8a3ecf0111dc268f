package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	fe := New("TEST_ERROR", CategoryConfig, "test message")

	if fe.Code != "TEST_ERROR" {
		t.Errorf("expected Code 'TEST_ERROR', got %q", fe.Code)
	}
	if fe.Category != CategoryConfig {
		t.Errorf("expected Category CategoryConfig, got %v", fe.Category)
	}
	if fe.Context == nil {
		t.Error("expected Context map to be initialized, got nil")
	}
	if fe.Cause != nil {
		t.Errorf("expected Cause to be nil, got %v", fe.Cause)
	}
}

func TestFitError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FitError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrConfigMissingModel, CategoryConfig, "model function is missing"),
			expected: "CONFIG_MISSING_MODEL: model function is missing",
		},
		{
			name:     "with cause",
			err:      New(ErrIOReadFailed, CategoryIO, "failed to read table").WithCause(fmt.Errorf("permission denied")),
			expected: "IO_READ_FAILED: failed to read table: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFitError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WrapModel(cause, ErrModelEvaluationFailed, "model failed")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !errors.Is(err, New(ErrModelEvaluationFailed, CategoryModel, "")) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, New(ErrConfigInvalid, CategoryConfig, "")) {
		t.Error("errors.Is should not match a different code")
	}

	wrapped := fmt.Errorf("step 3: %w", err)
	var fe *FitError
	if !errors.As(wrapped, &fe) {
		t.Fatal("errors.As should find the FitError through fmt wrapping")
	}
	if fe.Category != CategoryModel {
		t.Errorf("expected CategoryModel, got %v", fe.Category)
	}
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      *FitError
		category Category
	}{
		{"config", Config(ErrConfigInvalid, "bad"), CategoryConfig},
		{"configf", Configf(ErrConfigInvalid, "bad %d", 1), CategoryConfig},
		{"data", DataFormat(ErrDataEmpty, "empty"), CategoryData},
		{"dataf", DataFormatf(ErrDataEmpty, "empty %s", "table"), CategoryData},
		{"sampler", Samplerf(ErrSamplerNotPrepared, "not ready"), CategorySampler},
		{"wrap io", WrapIO(fmt.Errorf("x"), ErrIOWriteFailed, "write"), CategoryIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsCategory(tt.err, tt.category) {
				t.Errorf("expected category %v, got %v", tt.category, tt.err.Category)
			}
			if !IsCode(tt.err, tt.err.Code) {
				t.Errorf("IsCode(%q) should be true", tt.err.Code)
			}
		})
	}

	if IsCategory(fmt.Errorf("plain"), CategoryConfig) {
		t.Error("plain errors have no category")
	}
}

func TestAttachSuggestions(t *testing.T) {
	err := Config(ErrConfigMissingModel, "model function is missing")
	if !err.HasSuggestions() {
		t.Fatal("expected suggestions for CONFIG_MISSING_MODEL")
	}
	if !strings.Contains(err.Suggestions[0], "model.name") {
		t.Errorf("unexpected suggestion %q", err.Suggestions[0])
	}

	if AttachSuggestions(nil) != nil {
		t.Error("AttachSuggestions(nil) should return nil")
	}

	hints := GetSuggestions(ErrConfigNotFound)
	hints[0] = "mutated"
	if GetSuggestions(ErrConfigNotFound)[0] == "mutated" {
		t.Error("GetSuggestions must return a copy")
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
	if got := Format(fmt.Errorf("plain")); got != "Error: plain" {
		t.Errorf("Format(plain) = %q", got)
	}

	err := DataFormat(ErrDataMissingColumn, "table has no flux column").
		WithContext("column", "flux").
		WithCause(fmt.Errorf("key not found"))
	out := Format(err)
	for _, want := range []string{"ERROR [DATA_MISSING_COLUMN]", `column="flux"`, "Cause: key not found", "→ Tables need"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
}
