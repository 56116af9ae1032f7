package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

// DefaultProgramID es el program id del despliegue local.
const DefaultProgramID = "FW9KvGkRcnibqm5LSE4J8sq3homgVizKGBoNA511gR2s"

// Config es la configuración completa del CLI.
type Config struct {
	Program ProgramConfig `yaml:"program"`
	Global  GlobalConfig  `yaml:"global"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ProgramConfig identifica el despliegue: program id y seeds de derivación.
type ProgramConfig struct {
	ID          string `yaml:"id"`
	GlobalSeed  string `yaml:"global_seed"`
	MarketSeed  string `yaml:"market_seed"`
	CustodySeed string `yaml:"custody_seed"`
	MintSeed    string `yaml:"mint_seed"`
}

// GlobalConfig es el fee schedule por defecto para init y update-global.
type GlobalConfig struct {
	FeeAuthority           string `yaml:"fee_authority"`
	CreatorFeeAmount       uint64 `yaml:"creator_fee_amount"`        // lamports
	LiquidityUserFeeAmount uint64 `yaml:"liquidity_user_fee_amount"` // lamports
	BettingUserFeeAmount   uint64 `yaml:"betting_user_fee_amount"`   // lamports
	Decimal                uint8  `yaml:"decimal"`
	FeePercentage          uint8  `yaml:"fee_percentage"` // 0-100
}

// OracleConfig controla el price feed.
type OracleConfig struct {
	FeedURL                string  `yaml:"feed_url"` // vacío: lectura estática desde el CLI
	StalenessWindowSeconds int     `yaml:"staleness_window_seconds"`
	RequestsPerSecond      float64 `yaml:"requests_per_second"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, err := cfg.ProgramID(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ProgramID parsea el program id.
func (c *Config) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("program id %q: %w", c.Program.ID, err)
	}
	return id, nil
}

// Seeds devuelve las seeds de derivación; las vacías usan los defaults.
func (c *Config) Seeds() custody.Seeds {
	return custody.Seeds{
		Global:  c.Program.GlobalSeed,
		Market:  c.Program.MarketSeed,
		Custody: c.Program.CustodySeed,
		Mint:    c.Program.MintSeed,
	}
}

// StalenessWindow devuelve la ventana de staleness como time.Duration.
func (c *Config) StalenessWindow() time.Duration {
	return time.Duration(c.Oracle.StalenessWindowSeconds) * time.Second
}

// GlobalParams convierte el fee schedule en parámetros de init/update.
func (c *Config) GlobalParams() (domain.GlobalParams, error) {
	feeAuthority, err := solana.PublicKeyFromBase58(c.Global.FeeAuthority)
	if err != nil {
		return domain.GlobalParams{}, fmt.Errorf("config.GlobalParams: fee authority %q: %w", c.Global.FeeAuthority, err)
	}
	p := domain.GlobalParams{
		FeeAuthority:           feeAuthority,
		CreatorFeeAmount:       c.Global.CreatorFeeAmount,
		LiquidityUserFeeAmount: c.Global.LiquidityUserFeeAmount,
		BettingUserFeeAmount:   c.Global.BettingUserFeeAmount,
		Decimal:                c.Global.Decimal,
		FeePercentage:          c.Global.FeePercentage,
	}
	if err := p.Validate(); err != nil {
		return domain.GlobalParams{}, fmt.Errorf("config.GlobalParams: %w", err)
	}
	return p, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PREDICTION_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("PREDICTION_FEED_URL"); v != "" {
		cfg.Oracle.FeedURL = v
	}
	if v := os.Getenv("PREDICTION_PROGRAM_ID"); v != "" {
		cfg.Program.ID = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Program.ID == "" {
		cfg.Program.ID = DefaultProgramID
	}
	if cfg.Oracle.StalenessWindowSeconds <= 0 {
		cfg.Oracle.StalenessWindowSeconds = int(domain.DefaultStalenessWindow / time.Second)
	}
	if cfg.Oracle.RequestsPerSecond <= 0 {
		cfg.Oracle.RequestsPerSecond = 5
	}
	if cfg.Global.Decimal == 0 {
		cfg.Global.Decimal = 6
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "prediction.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
