/*
Copyright © 2025 teenai
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

// uploadDocumentCmd represents the upload-document command
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Index a PDF file into the vector database",
	Long: `Extracts text from a PDF, splits it into chunks and writes the
chunks into the vector database so the chat server can answer
questions about it. The server does the same for files uploaded
over HTTP; this command is for seeding the index from a shell.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		title, _ := cmd.Flags().GetString("title")
		tags, _ := cmd.Flags().GetStringArray("tags")
		reinit, _ := cmd.Flags().GetBool("reinit")

		if filePath == "" {
			log.Fatal("missing required flag --file")
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

		if title == "" {
			title = utils.GetFileNameWithoutExt(filePath)
		}
		req := types.UploadRequest{
			Title: title,
			Tags:  tags,
		}

		statusChan := make(chan types.ProcessingDocumentStatus)
		go func() {
			for status := range statusChan {
				log.Printf("%s: %d/%d pages", status.Status, status.ProcessedPages, status.TotalPages)
			}
		}()

		if err := fileService.IngestFile(context.Background(), filePath, req, statusChan); err != nil {
			log.Fatalf("Failed to index %s: %v", filePath, err)
		}
		log.Printf("Indexed %s as %q", filePath, title)
	},
}

// newIngestPipeline wires the pieces the indexing commands need, without the
// HTTP stack.
func newIngestPipeline(cfg *config.Config) (*service.FileService, *database.WeaviateStore) {
	pdfService := service.NewPDFService(types.DocumentServiceConfig{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		OverlapSize:  cfg.Chunking.OverlapSize,
	})

	weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate database: %v", err)
	}

	aiService, err := newAIService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize AI service: %v", err)
	}

	store, err := newStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}

	return service.NewFileService(store, weaviateDb, pdfService, aiService), weaviateDb
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)

	uploadDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF file to index")
	uploadDocumentCmd.Flags().String("title", "", "Title to index the document under (defaults to the file name)")
	uploadDocumentCmd.Flags().StringArrayP("tags", "g", []string{}, "Tags for the document")
	uploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Drop and recreate the schema first")
}
