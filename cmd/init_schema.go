/*
Copyright © 2025 teenai
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/database"
)

// initSchemaCmd represents the init-schema command
var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Drop and recreate the Weaviate schema",
	Long: `Deletes the paper collection in Weaviate and creates it again from
scratch. All indexed chunks are lost; re-run upload-document or
batch-upload-document afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}

		if err := weaviateDb.ReInit(); err != nil {
			log.Fatalf("Failed to recreate schema: %v", err)
		}
		log.Println("Schema recreated")
	},
}

func init() {
	rootCmd.AddCommand(initSchemaCmd)
}
