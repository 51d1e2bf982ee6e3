package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIModel  string `env:"OPENAI_MODEL"                     envDefault:"gpt-5-mini"`

	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"       envDefault:"db.sqlite"`
	HTTPAddr     string  `env:"HTTP_ADDR"`

	ChunkMaxChars        int  `env:"CHUNK_MAX_CHARS"       envDefault:"35000"`
	SummarizeParallelism int  `env:"SUMMARIZE_PARALLELISM" envDefault:"1"`
	RemoteRetryAttempts  uint `env:"REMOTE_RETRY_ATTEMPTS" envDefault:"3"`

	OCREnabled      bool   `env:"OCR_ENABLED"        envDefault:"true"`
	OCRMinTextChars int    `env:"OCR_MIN_TEXT_CHARS" envDefault:"30"`
	PDFToPPMPath    string `env:"PDFTOPPM_PATH"      envDefault:"pdftoppm"`

	ReportRetention  time.Duration `env:"REPORT_RETENTION"   envDefault:"720h"`
	SummaryCacheSize int           `env:"SUMMARY_CACHE_SIZE" envDefault:"1024"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL"  envDefault:"24h"`
}

// Load reads an optional .env file, then parses the environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ChunkMaxChars <= 0 {
		return Config{}, errors.New("CHUNK_MAX_CHARS must be positive")
	}

	if cfg.SummarizeParallelism <= 0 {
		return Config{}, errors.New("SUMMARIZE_PARALLELISM must be positive")
	}

	return cfg, nil
}
