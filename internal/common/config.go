package common

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Roots    []string
	Log      LogConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
	Server   ServerConfig
	Audit    AuditConfig
	Batch    BatchConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract      string
	Pdftotext      string
	Pdftoppm       string
	Lang           string
	TessdataDir    string
	DPI            int
	PSM            int
	OEM            int
	HeicConverter  string
	PDFOCRFallback bool
	MaxPages       int  // PDF pages OCRed at most, 0 = all
	Binarize       bool // Otsu threshold images before OCR
	TSVConfidence  bool // second tesseract pass for word confidences
}

// PipelineConfig bounds a single conversion.
type PipelineConfig struct {
	MaxFileSize int64
	Timeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// AuditConfig points at the gate decision log. Empty DSN disables it.
type AuditConfig struct {
	DSN string
}

// BatchConfig sizes the conversion worker pool.
type BatchConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

const EnvPrefix = "DOCGATE"

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.oem", 3)
	v.SetDefault("ocr.heic_converter", "magick")
	v.SetDefault("ocr.pdf_ocr_fallback", false)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.binarize", false)
	v.SetDefault("ocr.tsv_confidence", false)
	v.SetDefault("pipeline.max_file_size", int64(100<<20))
	v.SetDefault("pipeline.timeout", 2*time.Minute)
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.queue_size", 256)
	v.SetDefault("batch.timeout", 3*time.Minute)
}

// NewViper returns a viper instance with defaults, env binding and, when found,
// the config file loaded. cfgFile overrides the search path.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "docgate"))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
	}
	return v, nil
}

// LoadConfig reads the typed configuration out of v.
func LoadConfig(v *viper.Viper) *Config {
	return &Config{
		Roots: splitRoots(v.GetStringSlice("roots")),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		OCR: OCRConfig{
			Tesseract:      v.GetString("ocr.tesseract"),
			Pdftotext:      v.GetString("ocr.pdftotext"),
			Pdftoppm:       v.GetString("ocr.pdftoppm"),
			Lang:           v.GetString("ocr.lang"),
			TessdataDir:    v.GetString("ocr.tessdata_dir"),
			DPI:            v.GetInt("ocr.dpi"),
			PSM:            v.GetInt("ocr.psm"),
			OEM:            v.GetInt("ocr.oem"),
			HeicConverter:  v.GetString("ocr.heic_converter"),
			PDFOCRFallback: v.GetBool("ocr.pdf_ocr_fallback"),
			MaxPages:       v.GetInt("ocr.max_pages"),
			Binarize:       v.GetBool("ocr.binarize"),
			TSVConfidence:  v.GetBool("ocr.tsv_confidence"),
		},
		Pipeline: PipelineConfig{
			MaxFileSize: v.GetInt64("pipeline.max_file_size"),
			Timeout:     v.GetDuration("pipeline.timeout"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("server.grpc_addr"),
		},
		Audit: AuditConfig{
			DSN: v.GetString("audit.dsn"),
		},
		Batch: BatchConfig{
			Workers:   v.GetInt("batch.workers"),
			QueueSize: v.GetInt("batch.queue_size"),
			Timeout:   v.GetDuration("batch.timeout"),
		},
	}
}

// splitRoots accepts both repeated values and a single PATH-style list
// (DOCGATE_ROOTS=/a:/b).
func splitRoots(in []string) []string {
	var out []string
	for _, r := range in {
		for _, p := range filepath.SplitList(r) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, OneOf("text", "json")).
		Field("ocr.tesseract", c.OCR.Tesseract, Required).
		Field("ocr.pdftotext", c.OCR.Pdftotext, Required).
		Field("ocr.lang", c.OCR.Lang, Required).
		Field("ocr.heic_converter", c.OCR.HeicConverter, OneOf("heif-convert", "magick", "sips")).
		Field("ocr.dpi", c.OCR.DPI, Positive).
		Field("pipeline.max_file_size", c.Pipeline.MaxFileSize, Positive).
		Field("batch.workers", c.Batch.Workers, Positive).
		Field("batch.queue_size", c.Batch.QueueSize, Positive)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrValidation)
	}
	return nil
}
