package config_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

func TestGenerateSchema(t *testing.T) {
	t.Parallel()

	s := config.GenerateSchema()
	if !slices.Contains(s.Required, "problem") {
		t.Errorf("Required = %v, want problem", s.Required)
	}

	problem := s.Properties["problem"]
	for _, name := range problems.Default().Names() {
		if !slices.Contains(problem.Enum, name) {
			t.Errorf("problem enum %v missing %s", problem.Enum, name)
		}
	}

	for _, section := range []string{"solver", "beliefs", "storage", "resilience", "logging", "observability"} {
		if s.Properties[section] == nil {
			t.Errorf("schema missing section %s", section)
		}
	}

	rate := s.Properties["observability"].Properties["tracing"].Properties["sample_rate"]
	if rate.Maximum == nil || *rate.Maximum != 1 {
		t.Errorf("sample_rate maximum = %v, want 1", rate.Maximum)
	}
}

func TestSchemaJSON(t *testing.T) {
	t.Parallel()

	out, err := config.SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if doc["$schema"] == nil || doc["title"] != "Solver Configuration" {
		t.Errorf("schema header = %v, %v", doc["$schema"], doc["title"])
	}
}
