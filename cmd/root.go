package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ai-recruiter"
)

type Config struct {
	AI        *AIConfig        `mapstructure:"ai"`
	Interview *InterviewConfig `mapstructure:"interview"`
	Detector  *DetectorConfig  `mapstructure:"detector"`
	Storage   *StorageConfig   `mapstructure:"storage"`
	Summary   *SummaryConfig   `mapstructure:"summary"`
}

type AIConfig struct {
	Provider     string                     `mapstructure:"provider"`
	Model        string                     `mapstructure:"model"`
	SummaryModel string                     `mapstructure:"summary-model"`
	MaxLogLength int                        `mapstructure:"max-log-length"`
	Timeout      time.Duration              `mapstructure:"timeout"`
	Providers    map[string]*ProviderConfig `mapstructure:"providers"`
}

type ProviderConfig struct {
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	BaseURL    string        `mapstructure:"base-url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type InterviewConfig struct {
	MaxQuestions         int     `mapstructure:"max-questions"`
	CoverageMinQuestions int     `mapstructure:"coverage-min-questions"`
	SkillTargetMin       int     `mapstructure:"skill-target-min"`
	SkillTargetMax       int     `mapstructure:"skill-target-max"`
	QuestionTotalScore   float64 `mapstructure:"question-total-score"`
	PassThreshold        float64 `mapstructure:"pass-threshold"`
}

type DetectorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SummaryConfig struct {
	RecentSessions int    `mapstructure:"recent-sessions"`
	Schedule       string `mapstructure:"schedule"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ai-recruiter runs AI-led screening interviews and summarises candidate performance",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ai-recruiter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.timeout", "60s")

	viper.SetDefault("interview.max-questions", 25)
	viper.SetDefault("interview.coverage-min-questions", 20)
	viper.SetDefault("interview.skill-target-min", 5)
	viper.SetDefault("interview.skill-target-max", 7)
	viper.SetDefault("interview.question-total-score", 5)
	viper.SetDefault("interview.pass-threshold", 7.0)

	viper.SetDefault("detector.enabled", false)
	viper.SetDefault("detector.timeout", "10s")

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.dsn", app+".db")

	viper.SetDefault("summary.recent-sessions", 5)
	viper.SetDefault("summary.schedule", "0 2 * * *")
}

func initConfig() {
	viper.SetEnvPrefix(strings.ReplaceAll(app, "-", "_"))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Defaults and environment are enough when no config file was asked for.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
