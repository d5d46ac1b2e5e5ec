package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/storage"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

const maxEmbedBatch = 64

// DocumentProcessor turns a PDF on disk into a stream of text chunks
type DocumentProcessor interface {
	ProcessPDF(filePath string, req types.UploadRequest, c chan<- types.DocumentChunk) error
}

// FileService ingests uploaded papers: it stores the raw file, extracts and
// chunks the text, embeds the chunks and writes them to the vector store
type FileService struct {
	store      storage.Storage
	vectorDB   database.VectorStore
	pdfService DocumentProcessor
	ai         AIService // nil when the vector store vectorizes server-side
}

func NewFileService(
	store storage.Storage,
	vectorDB database.VectorStore,
	pdfService DocumentProcessor,
	ai AIService,
) *FileService {
	return &FileService{
		store:      store,
		vectorDB:   vectorDB,
		pdfService: pdfService,
		ai:         ai,
	}
}

// UploadFile handles a multipart upload, reporting progress on the channel
func (s *FileService) UploadFile(ctx context.Context, req types.UploadRequest, file *multipart.FileHeader, c chan<- types.ProcessingDocumentStatus) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return fmt.Errorf("unsupported file type: %s", ext)
	}
	if req.Title == "" {
		req.Title = utils.GetFileNameWithoutExt(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	// Parsing needs a file on disk, go through a temp copy
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	key := utils.TimestampedKey(req.Title, ext)
	raw, err := os.Open(tmp.Name())
	if err != nil {
		return err
	}
	defer raw.Close()
	if err := s.store.Put(ctx, key, raw, file.Size, "application/pdf"); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	if req.Source == "" {
		req.Source = key
	}

	return s.ingest(ctx, tmp.Name(), req, c)
}

// IngestFile indexes a PDF already on disk, used by the CLI upload commands
func (s *FileService) IngestFile(ctx context.Context, path string, req types.UploadRequest, c chan<- types.ProcessingDocumentStatus) error {
	if req.Title == "" {
		req.Title = utils.GetFileNameWithoutExt(path)
	}
	if req.Source == "" {
		req.Source = filepath.Base(path)
	}
	return s.ingest(ctx, path, req, c)
}

func (s *FileService) ingest(ctx context.Context, path string, req types.UploadRequest, c chan<- types.ProcessingDocumentStatus) error {
	// Drop stale chunks from a previous upload of the same paper
	if err := s.vectorDB.DeleteByTitle(ctx, req.Title); err != nil {
		log.Printf("Warning: failed to delete existing chunks for %q: %v", req.Title, err)
	}

	chunkChan := make(chan types.DocumentChunk)
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.pdfService.ProcessPDF(path, req, chunkChan)
	}()

	var batch []types.DocumentChunk
	total := 0
	for chunk := range chunkChan {
		batch = append(batch, chunk)
		total++
		if c != nil {
			status := types.ProcessingDocumentStatus{
				Status:         "processing",
				Message:        "Processing document",
				Progress:       float64(chunk.Metadata.PageNum) / float64(chunk.Metadata.TotalPages),
				TotalPages:     chunk.Metadata.TotalPages,
				ProcessedPages: chunk.Metadata.PageNum,
			}
			// Keep draining chunks even when the listener goes away
			select {
			case c <- status:
			case <-ctx.Done():
				c = nil
			}
		}
		if len(batch) >= maxEmbedBatch {
			if err := s.indexChunks(ctx, batch); err != nil {
				// Unblock the producer before bailing out
				go func() {
					for range chunkChan {
					}
				}()
				return err
			}
			batch = batch[:0]
		}
	}
	if err := <-errChan; err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := s.indexChunks(ctx, batch); err != nil {
			return err
		}
	}
	if total == 0 {
		return fmt.Errorf("no text could be extracted from %s", filepath.Base(path))
	}

	if c != nil {
		select {
		case c <- types.ProcessingDocumentStatus{
			Status:  "completed",
			Message: fmt.Sprintf("Indexed %d chunks", total),
		}:
		case <-ctx.Done():
		}
	}
	log.Printf("Indexed %d chunks for %q", total, req.Title)
	return nil
}

func (s *FileService) indexChunks(ctx context.Context, chunks []types.DocumentChunk) error {
	var embeddings [][]float32
	if s.ai != nil {
		texts := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			texts = append(texts, chunk.Content)
		}
		var err error
		embeddings, err = s.ai.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
	}
	start := time.Now()
	if err := s.vectorDB.BatchInsertChunks(ctx, chunks, embeddings); err != nil {
		return err
	}
	log.Printf("Inserted %d chunks in %s", len(chunks), time.Since(start))
	return nil
}
