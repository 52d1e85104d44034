package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hfsrb/hfsrb/internal/schema"
	"github.com/hfsrb/hfsrb/internal/variant"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Sink names accepted in sinks.enabled.
const (
	SinkFile     = "file"
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
	SinkS3       = "s3"
)

// Postgres authentication methods.
const (
	AuthPassword       = "password"
	AuthAWSIAM         = "aws-iam"
	AuthAzureEntra     = "azure-entra"
	AuthGoogleCloudSQL = "gcp-cloudsql"
)

// Paths are project-relative directories.
type Paths struct {
	Schemas   string `yaml:"schemas"`
	Compiled  string `yaml:"compiled"`
	Ingestion string `yaml:"ingestion"`
	Mappings  string `yaml:"mappings"`
	Data      string `yaml:"data"`
}

// Resolve returns p with every relative entry joined onto root.
func (p Paths) Resolve(root string) Paths {
	join := func(s string) string {
		if filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(root, s)
	}
	return Paths{
		Schemas:   join(p.Schemas),
		Compiled:  join(p.Compiled),
		Ingestion: join(p.Ingestion),
		Mappings:  join(p.Mappings),
		Data:      join(p.Data),
	}
}

type FileSinkConfig struct {
	FileName string `yaml:"file_name"`
}

type PostgresSinkConfig struct {
	URL           string `yaml:"url,omitempty"`
	Table         string `yaml:"table"`
	AuthMethod    string `yaml:"auth_method,omitempty"`
	AWSRegion     string `yaml:"aws_region,omitempty"`
	AzureTenantID string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID string `yaml:"azure_client_id,omitempty"`
	// AzureClientSecret only comes from AZURE_CLIENT_SECRET.
	AzureClientSecret string `yaml:"-"`
	CloudSQLInstance  string `yaml:"cloudsql_instance,omitempty"`
	MaxConns          int32  `yaml:"max_conns,omitempty"`
	MaxAttempts       int    `yaml:"max_attempts,omitempty"`
}

type SQLiteSinkConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

type S3SinkConfig struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

type SinksConfig struct {
	Enabled  []string           `yaml:"enabled"`
	File     FileSinkConfig     `yaml:"file"`
	Postgres PostgresSinkConfig `yaml:"postgres"`
	SQLite   SQLiteSinkConfig   `yaml:"sqlite"`
	S3       S3SinkConfig       `yaml:"s3"`
}

// Has reports whether the named sink is enabled.
func (s SinksConfig) Has(name string) bool {
	for _, n := range s.Enabled {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
	}
	return false
}

// ProjectConfig is the decoded hfsrb.yaml layered over the built-in defaults.
type ProjectConfig struct {
	Paths     Paths                   `yaml:"paths"`
	Compiler  schema.CompilerConfig   `yaml:"compiler"`
	Ingestion schema.RelaxConfig      `yaml:"ingestion"`
	Variants  map[string]variant.Rule `yaml:"variants"`
	// Identity lists the payload properties every facility of a type must carry.
	Identity map[string][]string `yaml:"identity"`
	// Workers bounds mapping parallelism; 0 means one per CPU.
	Workers int         `yaml:"workers"`
	Sinks   SinksConfig `yaml:"sinks"`
}

// VariantRules returns the variant rules keyed by lowercased facility type.
func (c *ProjectConfig) VariantRules() variant.Rules {
	return variant.NewRules(c.Variants)
}

// IdentityFields returns the identity checks for a facility type.
func (c *ProjectConfig) IdentityFields(facilityType string) []string {
	for t, fields := range c.Identity {
		if strings.EqualFold(t, facilityType) {
			return fields
		}
	}
	return nil
}

// EffectiveWorkers resolves Workers to a positive count.
func (c *ProjectConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Defaults returns the built-in configuration.
func Defaults() *ProjectConfig {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("BUG: embedded defaults.yaml is invalid: %v", err))
	}
	return cfg
}

// Parse decodes data over the built-in defaults. Empty data yields the defaults.
func Parse(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := decodeInto(defaultsYAML, &cfg); err != nil {
		return nil, err
	}
	if err := decodeInto(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", hfsrb.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func decodeInto(data []byte, cfg *ProjectConfig) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Load reads hfsrb.yaml from dir. It returns hfsrb.ErrConfigNotFound when the
// file does not exist.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, hfsrb.ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hfsrb.ErrConfigNotFound
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values from the environment.
func (c *ProjectConfig) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Sinks.Postgres.URL = v
	}
	if v := getenv("HFSRB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HFSRB_WORKERS=%q is not an integer", hfsrb.ErrInvalidConfig, v)
		}
		c.Workers = n
	}
	if v := getenv("HFSRB_S3_BUCKET"); v != "" {
		c.Sinks.S3.Bucket = v
	}
	if v := getenv("HFSRB_S3_ENDPOINT"); v != "" {
		c.Sinks.S3.Endpoint = v
	}
	if v := getenv("AZURE_CLIENT_SECRET"); v != "" {
		c.Sinks.Postgres.AzureClientSecret = v
	}
	if v := getenv("HFSRB_CLOUDSQL_INSTANCE"); v != "" {
		c.Sinks.Postgres.CloudSQLInstance = v
	}
	if v := getenv("AWS_REGION"); v != "" {
		if c.Sinks.S3.Region == "" {
			c.Sinks.S3.Region = v
		}
		if c.Sinks.Postgres.AWSRegion == "" {
			c.Sinks.Postgres.AWSRegion = v
		}
	}
	return nil
}

// Validate reports every problem found, each wrapping hfsrb.ErrInvalidConfig.
func (c *ProjectConfig) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", hfsrb.ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Workers < 0 {
		add("workers must be >= 0, got %d", c.Workers)
	}
	if c.Compiler.YearMinimum > c.Compiler.YearMaximum {
		add("compiler.year_minimum (%d) exceeds year_maximum (%d)", c.Compiler.YearMinimum, c.Compiler.YearMaximum)
	}
	if c.Compiler.MinCodeLength < 0 {
		add("compiler.min_code_length must be >= 0")
	}
	for name, p := range map[string]string{
		"schemas": c.Paths.Schemas, "compiled": c.Paths.Compiled, "ingestion": c.Paths.Ingestion,
		"mappings": c.Paths.Mappings, "data": c.Paths.Data,
	} {
		if strings.TrimSpace(p) == "" {
			add("paths.%s must not be empty", name)
		}
	}

	rules := c.VariantRules()
	for _, ftype := range rules.Types() {
		rule, _ := rules.For(ftype)
		if rule.MetaKey == "" {
			add("variants.%s.meta_key is required", ftype)
		}
		if rule.Tagging != nil {
			validateTagging(ftype, rule.Tagging, add)
		}
	}

	for _, name := range c.Sinks.Enabled {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SinkFile:
			if c.Sinks.File.FileName == "" {
				add("sinks.file.file_name is required")
			}
		case SinkPostgres:
			pg := c.Sinks.Postgres
			if pg.URL == "" {
				add("sinks.postgres.url is required (or set DATABASE_URL)")
			}
			if pg.Table == "" {
				add("sinks.postgres.table is required")
			}
			switch pg.AuthMethod {
			case "", AuthPassword:
			case AuthAWSIAM:
				if pg.AWSRegion == "" {
					add("sinks.postgres.aws_region is required for auth_method %s (or set AWS_REGION)", AuthAWSIAM)
				}
			case AuthAzureEntra:
				if (pg.AzureTenantID != "" || pg.AzureClientID != "") && (pg.AzureTenantID == "" || pg.AzureClientID == "" || pg.AzureClientSecret == "") {
					add("sinks.postgres azure_tenant_id, azure_client_id and AZURE_CLIENT_SECRET must be set together (or all left empty for the default credential)")
				}
			case AuthGoogleCloudSQL:
				if pg.CloudSQLInstance == "" {
					add("sinks.postgres.cloudsql_instance is required for auth_method %s (or set HFSRB_CLOUDSQL_INSTANCE)", AuthGoogleCloudSQL)
				}
			default:
				add("sinks.postgres.auth_method %q is not one of %s, %s, %s, %s",
					pg.AuthMethod, AuthPassword, AuthAWSIAM, AuthAzureEntra, AuthGoogleCloudSQL)
			}
		case SinkSQLite:
			if c.Sinks.SQLite.Path == "" || c.Sinks.SQLite.Table == "" {
				add("sinks.sqlite.path and sinks.sqlite.table are required")
			}
		case SinkS3:
			if c.Sinks.S3.Bucket == "" {
				add("sinks.s3.bucket is required (or set HFSRB_S3_BUCKET)")
			}
		default:
			add("unknown sink %q (expected %s, %s, %s or %s)", name, SinkFile, SinkPostgres, SinkSQLite, SinkS3)
		}
	}

	return errors.Join(errs...)
}

func validateTagging(ftype string, t *variant.Tagging, add func(string, ...any)) {
	checkThreshold := func(where string, th *variant.Threshold) {
		if len(th.Fields) == 0 {
			add("%s.fields must not be empty", where)
		}
		if th.Above == "" || th.Below == "" {
			add("%s needs both above and below tags", where)
		}
	}
	if t.Threshold != nil {
		checkThreshold(fmt.Sprintf("variants.%s.tagging.threshold", ftype), t.Threshold)
	}
	for i, c := range t.Categories {
		where := fmt.Sprintf("variants.%s.tagging.categories[%d]", ftype, i)
		if len(c.Prefixes) == 0 {
			add("%s.prefixes must not be empty", where)
		}
		switch {
		case c.Tag == "" && c.Threshold == nil:
			add("%s needs a tag or a threshold", where)
		case c.Threshold != nil:
			checkThreshold(where+".threshold", c.Threshold)
		}
	}
	if t.Threshold == nil && t.Fallback == "" {
		add("variants.%s.tagging needs a threshold or a fallback tag", ftype)
	}
}
