package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/model"
)

// AppFs is the filesystem config and env files are read from.
var AppFs = afero.NewOsFs()

const fileName = ".wporm"

// Config holds the application configuration
type Config struct {
	Provider     string        `mapstructure:"provider"`
	DatabaseURL  string        `mapstructure:"database_url"`
	TablePrefix  string        `mapstructure:"table_prefix"`
	RetainState  bool          `mapstructure:"retain_state"`
	Debug        bool          `mapstructure:"debug"`
	LogJSON      bool          `mapstructure:"log_json"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	Models       []ModelConfig `mapstructure:"models"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ModelConfig declares one entity. Lists are used instead of maps because
// viper lowercases map keys.
type ModelConfig struct {
	Name            string           `mapstructure:"name"`
	Table           string           `mapstructure:"table"`
	PrimaryKey      string           `mapstructure:"primary_key"`
	AllowUndeclared bool             `mapstructure:"allow_undeclared"`
	Fields          []FieldConfig    `mapstructure:"fields"`
	Relations       []RelationConfig `mapstructure:"relations"`
}

// FieldConfig declares a typed column.
type FieldConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// RelationConfig declares a relation. Pivot keys only apply to belongsToMany.
type RelationConfig struct {
	Name            string `mapstructure:"name"`
	Kind            string `mapstructure:"kind"`
	Related         string `mapstructure:"related"`
	ForeignKey      string `mapstructure:"foreign_key"`
	LocalKey        string `mapstructure:"local_key"`
	Pivot           string `mapstructure:"pivot"`
	ForeignPivotKey string `mapstructure:"foreign_pivot_key"`
	RelatedPivotKey string `mapstructure:"related_pivot_key"`
	RelatedKey      string `mapstructure:"related_key"`
}

// LoadConfig loads configuration from the given file, or searches the working
// directory, $HOME and $HOME/.config/wporm when file is empty. WPORM_* variables
// and DATABASE_URL override file values; .env and .env.local are loaded first.
func LoadConfig(file string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "wporm"))
	}

	v.SetEnvPrefix("WPORM")
	v.AutomaticEnv()

	v.SetDefault("provider", "mysql")
	v.SetDefault("table_prefix", "wp_")
	v.SetDefault("max_open_conns", 10)
	v.SetDefault("max_idle_conns", 2)
	for _, key := range []string{"retain_state", "debug", "log_json"} {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("database_url", "WPORM_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// loadEnvFiles applies .env without overriding the environment, then
// .env.local with override.
func loadEnvFiles() error {
	for _, f := range []struct {
		name     string
		override bool
	}{{".env", false}, {".env.local", true}} {
		data, err := afero.ReadFile(AppFs, f.name)
		if err != nil {
			continue
		}
		vars, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); set && !f.override {
				continue
			}
			os.Setenv(k, val)
		}
	}
	return nil
}

// Database converts the connection settings.
func (c *Config) Database() database.Config {
	return database.Config{
		Provider:     c.Provider,
		URL:          c.DatabaseURL,
		Prefix:       c.TablePrefix,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
}

// Registry builds and validates the model registry declared under models.
func (c *Config) Registry() (*model.Registry, error) {
	reg := model.NewRegistry()
	for _, m := range c.Models {
		opts, err := m.options()
		if err != nil {
			return nil, err
		}
		if _, err := reg.Define(m.Name, m.Table, opts...); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (m ModelConfig) options() ([]model.EntityOption, error) {
	var opts []model.EntityOption
	if m.PrimaryKey != "" {
		opts = append(opts, model.PrimaryKey(m.PrimaryKey))
	}
	if m.AllowUndeclared || len(m.Fields) == 0 {
		opts = append(opts, model.AllowUndeclared())
	}

	fields := make([]model.Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		t, err := model.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("model %s: field %s: %w", m.Name, f.Name, err)
		}
		fields = append(fields, model.Field{Name: f.Name, Type: t})
	}
	opts = append(opts, model.Fields(fields...))

	for _, r := range m.Relations {
		kind, err := model.ParseRelationKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("model %s: relation %s: %w", m.Name, r.Name, err)
		}
		opts = append(opts, model.DefineRelation(model.Relation{
			Name:            r.Name,
			Kind:            kind,
			Related:         r.Related,
			ForeignKey:      r.ForeignKey,
			LocalKey:        r.LocalKey,
			Pivot:           r.Pivot,
			ForeignPivotKey: r.ForeignPivotKey,
			RelatedPivotKey: r.RelatedPivotKey,
			RelatedKey:      r.RelatedKey,
		}))
	}
	return opts, nil
}

// DefaultPath returns $HOME/.config/wporm/.wporm.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wporm", fileName+".yaml"), nil
}

// SaveConfig writes the connection settings to path, or to DefaultPath when
// path is empty. Models are written back unchanged.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.Set("provider", cfg.Provider)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("table_prefix", cfg.TablePrefix)
	v.Set("retain_state", cfg.RetainState)
	v.Set("debug", cfg.Debug)
	v.Set("log_json", cfg.LogJSON)
	v.Set("max_open_conns", cfg.MaxOpenConns)
	v.Set("max_idle_conns", cfg.MaxIdleConns)
	if len(cfg.Models) > 0 {
		v.Set("models", modelsToMaps(cfg.Models))
	}

	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

func modelsToMaps(models []ModelConfig) []map[string]any {
	out := make([]map[string]any, 0, len(models))
	for _, m := range models {
		entry := map[string]any{"name": m.Name, "table": m.Table}
		if m.PrimaryKey != "" {
			entry["primary_key"] = m.PrimaryKey
		}
		if m.AllowUndeclared {
			entry["allow_undeclared"] = true
		}
		if len(m.Fields) > 0 {
			fields := make([]map[string]any, 0, len(m.Fields))
			for _, f := range m.Fields {
				fields = append(fields, map[string]any{"name": f.Name, "type": f.Type})
			}
			entry["fields"] = fields
		}
		if len(m.Relations) > 0 {
			rels := make([]map[string]any, 0, len(m.Relations))
			for _, r := range m.Relations {
				rel := map[string]any{"name": r.Name, "kind": r.Kind, "related": r.Related}
				for k, val := range map[string]string{
					"foreign_key":       r.ForeignKey,
					"local_key":         r.LocalKey,
					"pivot":             r.Pivot,
					"foreign_pivot_key": r.ForeignPivotKey,
					"related_pivot_key": r.RelatedPivotKey,
					"related_key":       r.RelatedKey,
				} {
					if val != "" {
						rel[k] = val
					}
				}
				rels = append(rels, rel)
			}
			entry["relations"] = rels
		}
		out = append(out, entry)
	}
	return out
}
