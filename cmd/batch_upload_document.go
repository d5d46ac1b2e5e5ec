/*
Copyright © 2025 teenai
*/
package cmd

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

// batchUploadDocumentCmd represents the batch-upload-document command
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload-document",
	Short: "Index every PDF in a directory",
	Long: `Walks a directory and indexes each PDF it finds, the same way
upload-document does for a single file. Files that fail to index are
logged and skipped so one broken PDF does not stop the batch.`,
	Run: func(cmd *cobra.Command, args []string) {
		directory, _ := cmd.Flags().GetString("directory")
		tags, _ := cmd.Flags().GetStringArray("tags")
		reinit, _ := cmd.Flags().GetBool("reinit")

		if directory == "" {
			log.Fatal("missing required flag --directory")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fileService, weaviateDb := newIngestPipeline(cfg)
		if reinit {
			if err := weaviateDb.ReInit(); err != nil {
				log.Fatalf("Failed to reinitialize Weaviate schema: %v", err)
			}
		}

		indexed, failed := 0, 0
		err = filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return nil
			}

			req := types.UploadRequest{
				Title: utils.GetFileNameWithoutExt(path),
				Tags:  tags,
			}
			if err := fileService.IngestFile(context.Background(), path, req, nil); err != nil {
				log.Printf("Failed to index %s: %v", path, err)
				failed++
				return nil
			}
			log.Printf("Indexed %s", path)
			indexed++
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to walk %s: %v", directory, err)
		}
		log.Printf("Done: %d indexed, %d failed", indexed, failed)
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)

	batchUploadDocumentCmd.Flags().StringP("directory", "d", "", "Directory containing PDF files to index")
	batchUploadDocumentCmd.Flags().StringArrayP("tags", "g", []string{}, "Tags applied to every document in the batch")
	batchUploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Drop and recreate the schema first")
}
