package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "local-blog-genius",
	Short: "API for generating localized blog content",
	Long: `LocalBlogGenius generates blog posts for an industry, location and topic
through an OpenAI-compatible model, stores them and serves CRUD and statistics
endpoints over HTTP.`,
	SilenceUsage: true,
	// 不带子命令时等同于 serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the config")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// bootstrap 加载 .env 与配置，构造日志和数据库连接
func bootstrap() (*conf.Config, *zap.Logger, *gorm.DB, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := conf.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		logger.Sync(log)
		return nil, nil, nil, err
	}
	return cfg, log, conn, nil
}

func closeDB(conn *gorm.DB, log *zap.Logger) {
	pool, err := conn.DB()
	if err != nil {
		return
	}
	if err := pool.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
