package config_test

import (
	"errors"
	"testing"

	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("DPG_SET", "value")
	t.Setenv("DPG_EMPTY", "")

	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"${DPG_SET}", "value"},
		{"$DPG_SET/x", "value/x"},
		{"${DPG_UNSET}", ""},
		{"${DPG_UNSET:-fallback}", "fallback"},
		{"${DPG_EMPTY:-fallback}", "fallback"},
		{"${DPG_SET:-fallback}", "value"},
		{"a ${DPG_SET} b $DPG_SET", "a value b value"},
	}

	for _, tt := range tests {
		if got := config.ExpandEnv(tt.input); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("DPG_SET", "value")

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"${DPG_SET}", "value", false},
		{"${DPG_UNSET:-d}", "d", false},
		{"${DPG_UNSET}", "", true},
		{"$DPG_UNSET", "", true},
		{"${DPG_SET:?required}", "value", false},
	}

	for _, tt := range tests {
		got, err := config.ExpandEnvStrict(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExpandEnvStrict(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, domainconfig.ErrMissingEnvVar) {
			t.Errorf("ExpandEnvStrict(%q) error = %v, want %v", tt.input, err, domainconfig.ErrMissingEnvVar)
		}
		if got != tt.want {
			t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExpandEnv_RequiredMessage(t *testing.T) {
	t.Parallel()

	// :? fails even when expansion is lenient.
	_, err := config.NewLoader().LoadString("problem: ${DPG_NEVER_SET:?set the problem}", config.FormatYAML)
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("LoadString() error = %v, want %v", err, domainconfig.ErrMissingEnvVar)
	}
}
