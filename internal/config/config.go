package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/flashsheet/internal/layout"
	"github.com/kpauljoseph/flashsheet/internal/sheet"
	"github.com/kpauljoseph/flashsheet/pkg/utils"
)

const EnvPrefix = "FLASHSHEET"

// Config holds every setting of a run. Lengths are points.
type Config struct {
	OutputDir  string           `mapstructure:"output_dir" yaml:"output_dir"`
	AssetDir   string           `mapstructure:"asset_dir" yaml:"asset_dir"`
	PlainText  bool             `mapstructure:"plain_text" yaml:"plain_text"`
	Page       PageConfig       `mapstructure:"page" yaml:"page"`
	Duplex     DuplexConfig     `mapstructure:"duplex" yaml:"duplex"`
	Typography TypographyConfig `mapstructure:"typography" yaml:"typography"`
	Images     ImageConfig      `mapstructure:"images" yaml:"images"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Anki       AnkiConfig       `mapstructure:"anki" yaml:"anki"`
	Columns    ColumnConfig     `mapstructure:"columns" yaml:"columns"`
}

type PageConfig struct {
	Size         string  `mapstructure:"size" yaml:"size" validate:"required,pagesize"`
	Orientation  string  `mapstructure:"orientation" yaml:"orientation" validate:"oneof=landscape portrait"`
	Rows         int     `mapstructure:"rows" yaml:"rows" validate:"gt=0,lte=12"`
	Cols         int     `mapstructure:"cols" yaml:"cols" validate:"gt=0,lte=12"`
	Margin       float64 `mapstructure:"margin" yaml:"margin" validate:"gte=0"`
	PaddingX     float64 `mapstructure:"padding_x" yaml:"padding_x" validate:"gte=0"`
	PaddingY     float64 `mapstructure:"padding_y" yaml:"padding_y" validate:"gte=0"`
	CaptionStrip float64 `mapstructure:"caption_strip" yaml:"caption_strip" validate:"gte=0"`
}

type DuplexConfig struct {
	Convention string `mapstructure:"convention" yaml:"convention" validate:"oneof=mirror-columns mirror-rows"`
}

type TypographyConfig struct {
	QuestionSize float64 `mapstructure:"question_size" yaml:"question_size" validate:"gt=0"`
	AnswerSize   float64 `mapstructure:"answer_size" yaml:"answer_size" validate:"gt=0"`
	CodeSize     float64 `mapstructure:"code_size" yaml:"code_size" validate:"gt=0"`
	CaptionSize  float64 `mapstructure:"caption_size" yaml:"caption_size" validate:"gt=0"`
	LineSpacing  float64 `mapstructure:"line_spacing" yaml:"line_spacing" validate:"gte=1"`
	MinScale     float64 `mapstructure:"min_scale" yaml:"min_scale" validate:"gt=0,lte=1"`
}

type ImageConfig struct {
	MaxWidth  float64 `mapstructure:"max_width" yaml:"max_width" validate:"gt=0,lte=1"`
	MaxHeight float64 `mapstructure:"max_height" yaml:"max_height" validate:"gt=0,lte=1"`
}

type OutputConfig struct {
	Format     string  `mapstructure:"format" yaml:"format" validate:"oneof=pdf png"`
	DPI        float64 `mapstructure:"dpi" yaml:"dpi" validate:"gt=0,lte=600"`
	PreviewDir string  `mapstructure:"preview_dir" yaml:"preview_dir"`
	Verify     bool    `mapstructure:"verify" yaml:"verify"`
}

type AnkiConfig struct {
	Mode       string `mapstructure:"mode" yaml:"mode" validate:"oneof=none apkg connect"`
	DeckName   string `mapstructure:"deck_name" yaml:"deck_name"`
	ConnectURL string `mapstructure:"connect_url" yaml:"connect_url" validate:"omitempty,url"`
	ModelID    int64  `mapstructure:"model_id" yaml:"model_id" validate:"gte=0"`
	DeckID     int64  `mapstructure:"deck_id" yaml:"deck_id" validate:"gte=0"`
	IDBase     int64  `mapstructure:"id_base" yaml:"id_base" validate:"gte=0"`
}

type ColumnConfig struct {
	Question string `mapstructure:"question" yaml:"question" validate:"required"`
	Answer   string `mapstructure:"answer" yaml:"answer" validate:"required"`
	Sheet    string `mapstructure:"sheet" yaml:"sheet"`
}

func Default() *Config {
	style := layout.DefaultStyle()
	geom := sheet.DefaultGeometry()
	return &Config{
		Page: PageConfig{
			Size:         "A4",
			Orientation:  "landscape",
			Rows:         geom.Rows,
			Cols:         geom.Cols,
			Margin:       geom.Margin,
			PaddingX:     geom.PaddingX,
			PaddingY:     geom.PaddingY,
			CaptionStrip: geom.CaptionStrip,
		},
		Duplex: DuplexConfig{Convention: string(sheet.MirrorColumns)},
		Typography: TypographyConfig{
			QuestionSize: style.QuestionSize,
			AnswerSize:   style.AnswerSize,
			CodeSize:     style.CodeSize,
			CaptionSize:  9,
			LineSpacing:  style.LineSpacing,
			MinScale:     style.MinScale,
		},
		Images: ImageConfig{MaxWidth: style.ImageMaxWidth, MaxHeight: style.ImageMaxHeight},
		Output: OutputConfig{Format: "pdf", DPI: 150},
		Anki: AnkiConfig{
			Mode:       "none",
			ConnectURL: "http://localhost:8765",
		},
		Columns: ColumnConfig{Question: "question", Answer: "answer"},
	}
}

// Load reads configuration from defaults, then the YAML file at path (when
// path is not empty), then FLASHSHEET_* environment variables, and validates
// the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return nil, err
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key of the default config, which also lets
// AutomaticEnv find overrides for keys absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]interface{}); ok {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("pagesize", func(fl validator.FieldLevel) bool {
		_, ok := utils.LookupPageSize(fl.Field().String())
		return ok
	})
	return v
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := c.Geometry(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Geometry returns the page grid described by the page section.
func (c *Config) Geometry() (sheet.Geometry, error) {
	size, ok := utils.LookupPageSize(c.Page.Size)
	if !ok {
		return sheet.Geometry{}, fmt.Errorf("unknown page size %q", c.Page.Size)
	}
	if c.Page.Orientation == "portrait" {
		size = size.Portrait()
	} else {
		size = size.Landscape()
	}
	g := sheet.Geometry{
		Page:         size,
		Rows:         c.Page.Rows,
		Cols:         c.Page.Cols,
		Margin:       c.Page.Margin,
		PaddingX:     c.Page.PaddingX,
		PaddingY:     c.Page.PaddingY,
		CaptionStrip: c.Page.CaptionStrip,
	}
	return g, g.Validate()
}

// Style returns the composer settings of the typography and image sections.
func (c *Config) Style() layout.Style {
	style := layout.DefaultStyle()
	style.QuestionSize = c.Typography.QuestionSize
	style.AnswerSize = c.Typography.AnswerSize
	style.CodeSize = c.Typography.CodeSize
	style.LineSpacing = c.Typography.LineSpacing
	style.MinScale = c.Typography.MinScale
	style.ImageMaxWidth = c.Images.MaxWidth
	style.ImageMaxHeight = c.Images.MaxHeight
	return style
}

// SheetOptions returns the builder options of the run.
func (c *Config) SheetOptions() sheet.Options {
	return sheet.Options{
		Convention:  sheet.Convention(c.Duplex.Convention),
		PlainText:   c.PlainText,
		CaptionSize: c.Typography.CaptionSize,
	}
}

// WriteDefault writes the default configuration as YAML. An existing file is
// left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
