package config

import (
	"encoding/json"

	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

// JSONSchema represents the subset of JSON Schema used to describe solver
// configuration files.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`
}

// durationPattern matches Go duration strings such as "30s" or "1m30s".
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

func object(description string, props map[string]*JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "object", Description: description, Properties: props}
}

func integer(description string, def any, minimum float64) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: description, Default: def, Minimum: &minimum}
}

func number(description string, def any, minimum float64) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description, Default: def, Minimum: &minimum}
}

func enum(description string, def string, values ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, Default: def, Enum: values}
}

func duration(description string, def string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, Default: def, Pattern: durationPattern}
}

func boolean(description string, def bool) *JSONSchema {
	return &JSONSchema{Type: "boolean", Description: description, Default: def}
}

// GenerateSchema generates a JSON Schema for SolverConfig. Defaults mirror
// domainconfig.Default and the problem enum lists the built-in registry.
func GenerateSchema() *JSONSchema {
	d := domainconfig.Default()
	one := 1.0

	rate := number("Fraction of runs traced", d.Observability.Tracing.SampleRate, 0)
	rate.Maximum = &one

	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/decpomdp-go/solver-config.schema.json",
		Title:       "Solver Configuration",
		Description: "Configuration for a Dec-POMDP policy iteration run",
		Type:        "object",
		Required:    []string{"problem"},
		Properties: map[string]*JSONSchema{
			"name":        {Type: "string", Description: "Human-readable name for this configuration"},
			"version":     {Type: "string", Description: "Configuration schema version", Default: d.Version},
			"description": {Type: "string", Description: "What the configuration is for"},
			"problem":     enum("Built-in problem to solve", "", problems.Default().Names()...),
			"solver": object("Policy iteration settings", map[string]*JSONSchema{
				"max_iterations":        integer("Backup/prune cycles allowed", d.Solver.MaxIterations, 1),
				"improvement_threshold": number("Stop once the value moves by less than this (0 runs every iteration)", d.Solver.ImprovementThreshold, 0),
				"max_backup_nodes":      integer("Nodes one backup may add per agent (0 = unlimited)", d.Solver.MaxBackupNodes, 0),
				"dominance_epsilon":     number("LP optimum above which a node is dominated", d.Solver.DominanceEpsilon, 0),
				"parallelism":           integer("Concurrent work within a phase (0 = GOMAXPROCS)", 0, 0),
				"retain":                boolean("Run the dominating-nodes retainer", true),
			}),
			"beliefs": object("Belief sampling settings", map[string]*JSONSchema{
				"count":           integer("Belief points, the initial belief included", d.Beliefs.Count, 1),
				"horizon":         integer("Length of one rollout", d.Beliefs.Horizon, 1),
				"policy":          enum("How rollouts pick joint actions", d.Beliefs.Policy, "random", "controller"),
				"seed":            integer("Seed for the rollout random source", d.Beliefs.Seed, 0),
				"max_rollouts":    integer("Rollouts per sampling phase (0 = 10 * count)", 0, 0),
				"merge_tolerance": number("Distance under which two beliefs are the same point", d.Beliefs.MergeTolerance, 0),
			}),
			"storage": object("Where iteration snapshots go", map[string]*JSONSchema{
				"backend": enum("Snapshot store", d.Storage.Backend,
					domainconfig.StorageNone, domainconfig.StorageMemory, domainconfig.StorageBadger,
					domainconfig.StorageSQLite, domainconfig.StorageFilesystem, domainconfig.StoragePostgres),
				"path": {Type: "string", Description: "Database file or directory, or the postgres connection string"},
			}),
			"resilience": object("Snapshot store protection", map[string]*JSONSchema{
				"circuit_breaker": object("Stops saving after repeated failures", map[string]*JSONSchema{
					"threshold": integer("Consecutive failures before opening", d.Resilience.CircuitBreaker.Threshold, 0),
					"timeout":   duration("How long the breaker stays open", d.Resilience.CircuitBreaker.Timeout.Duration().String()),
				}),
			}),
			"logging": object("Log output", map[string]*JSONSchema{
				"level":  enum("Minimum level", d.Logging.Level, "trace", "debug", "info", "warn", "error"),
				"format": enum("Output encoding", d.Logging.Format, "console", "json"),
			}),
			"observability": object("Tracing and metrics export", map[string]*JSONSchema{
				"tracing": object("Span export", map[string]*JSONSchema{
					"enabled":     boolean("Export spans", false),
					"exporter":    enum("Span exporter", d.Observability.Tracing.Exporter, "otlp", "stdout", "none"),
					"endpoint":    {Type: "string", Description: "OTLP collector address"},
					"insecure":    boolean("Disable TLS to the collector", false),
					"sample_rate": rate,
				}),
				"metrics": object("Metric export", map[string]*JSONSchema{
					"enabled":  boolean("Export metrics", false),
					"exporter": enum("Metric exporter", d.Observability.Metrics.Exporter, "stdout", "none"),
					"interval": duration("Export period", d.Observability.Metrics.Interval.Duration().String()),
				}),
			}),
		},
	}
}

// SchemaJSON returns the schema as indented JSON.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
