package commands

import (
	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, conn, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync(log)
		defer closeDB(conn, log)

		if err := db.Migrate(conn); err != nil {
			log.Error("migration failed", zap.Error(err))
			return err
		}
		log.Info("migration finished")
		return nil
	},
}
