package service

import (
	"bytes"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/teenai/paperchat-be/types"
)

// PDFService extracts and chunks text from uploaded papers
type PDFService struct {
	maxChunkSize int // Maximum size of each text chunk
	overlapSize  int // Size of overlap between chunks
}

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1024,
	OverlapSize:  128,
}

func NewPDFService(config types.DocumentServiceConfig) *PDFService {
	if config.MaxChunkSize == 0 {
		config.MaxChunkSize = DefaultDocumentServiceConfig.MaxChunkSize
	}
	if config.OverlapSize == 0 {
		config.OverlapSize = DefaultDocumentServiceConfig.OverlapSize
	}
	return &PDFService{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
	}
}

// ProcessPDF reads a PDF and sends sentence-boundary chunks to the channel.
// Text shorter than a chunk carries over to the next page so chunks can span
// page breaks.
func (s *PDFService) ProcessPDF(filePath string, req types.UploadRequest, c chan<- types.DocumentChunk) error {
	doc, err := fitz.New(filePath)
	if err != nil {
		close(c)
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	totalPages := doc.NumPage()
	log.Println("Total pages:", totalPages)

	return s.emitChunks(totalPages, func(pageNum int) (string, error) {
		return s.extractText(doc, filePath, pageNum)
	}, req, c)
}

// emitChunks chunks the pages one by one and closes the channel when done
func (s *PDFService) emitChunks(totalPages int, pageText func(pageNum int) (string, error), req types.UploadRequest, c chan<- types.DocumentChunk) error {
	defer close(c)

	// The trailing chunk of each page is held back and merged with the next
	// page so chunks can span page breaks.
	var held *types.DocumentChunk
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := pageText(pageNum)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", pageNum, err)
			continue // Skip failed pages instead of returning error
		}

		carry := ""
		if held != nil {
			carry = held.Content
		}
		text = strings.TrimSpace(carry + " " + s.CleanText(text))
		if text == "" {
			continue
		}

		metadata := types.DocumentMetadata{
			Title:      req.Title,
			Source:     req.Source,
			Tags:       req.Tags,
			PageNum:    pageNum,
			TotalPages: totalPages,
		}

		pageChunks, trailing := s.CreateChunks(text, metadata)
		held = nil
		if len(pageChunks) == 0 {
			continue
		}
		if trailing != "" && pageNum < totalPages {
			last := pageChunks[len(pageChunks)-1]
			held = &last
			pageChunks = pageChunks[:len(pageChunks)-1]
		}
		for _, chunk := range pageChunks {
			c <- chunk
		}
	}
	if held != nil {
		c <- *held
	}

	return nil
}

// extractText pulls page text from the embedded text layer, falling back to
// the poppler and tesseract CLI tools for scanned documents
func (s *PDFService) extractText(doc *fitz.Document, filePath string, pageNum int) (string, error) {
	text, err := doc.Text(pageNum - 1)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	text, err = s.extractTextWithPdftotext(filePath, pageNum)
	if err == nil {
		return text, nil
	}

	text, err = s.extractTextWithTesseract(filePath, pageNum)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// CreateChunks splits text into overlapping chunks at sentence boundaries.
// The second return value is the trailing chunk text that may still grow with
// content from the next page.
func (s *PDFService) CreateChunks(text string, metadata types.DocumentMetadata) ([]types.DocumentChunk, string) {
	textLen := len(text)
	if textLen == 0 {
		return nil, ""
	}
	if textLen <= s.maxChunkSize {
		return []types.DocumentChunk{
			{
				Content:  text,
				Page:     metadata.PageNum,
				Metadata: metadata,
			},
		}, text
	}

	var chunks []types.DocumentChunk
	lastText := ""
	currentPos := 0
	for currentPos < textLen {
		chunkEnd := currentPos + s.maxChunkSize
		if chunkEnd >= textLen {
			chunk := strings.TrimSpace(text[currentPos:])
			if chunk != "" {
				chunks = append(chunks, types.DocumentChunk{
					Content:  chunk,
					Page:     metadata.PageNum,
					Metadata: metadata,
				})
				lastText = chunk
			}
			break
		}

		// Find nearest sentence end
		sentenceEnd := chunkEnd
		for i := chunkEnd; i > currentPos; i-- {
			if text[i] == '.' || text[i] == '?' || text[i] == '!' {
				sentenceEnd = i + 1
				break
			}
		}

		// If no sentence end found, use word boundary
		if sentenceEnd == chunkEnd {
			for i := chunkEnd; i > currentPos; i-- {
				if text[i] == ' ' {
					sentenceEnd = i
					break
				}
			}
		}

		chunk := strings.TrimSpace(text[currentPos:sentenceEnd])
		if chunk != "" {
			chunks = append(chunks, types.DocumentChunk{
				Content:  chunk,
				Page:     metadata.PageNum,
				Metadata: metadata,
			})
		}

		next := sentenceEnd - s.overlapSize
		if next <= currentPos {
			next = sentenceEnd
		}
		currentPos = next
	}

	return chunks, lastText
}

func (s *PDFService) extractTextWithPdftotext(filePath string, pageNumber int) (string, error) {
	log.Println("Try extracting with pdftotext")
	cmd := exec.Command("pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed for page %d: %w", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// extractTextWithTesseract renders the page to an image and runs OCR, the
// last resort for scanned papers without a text layer
func (s *PDFService) extractTextWithTesseract(pdfPath string, pageNumber int) (string, error) {
	log.Println("Try extracting with tesseract")
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF for OCR: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImagePNG(pageNumber-1, 300)
	if err != nil {
		return "", fmt.Errorf("failed to render page %d: %w", pageNumber, err)
	}

	ocrCmd := exec.Command("tesseract",
		"stdin",
		"stdout",
		"-l", "eng+vie",
		"--oem", "3",
		"--psm", "3",
	)
	ocrCmd.Stdin = bytes.NewReader(img)
	var ocrOut bytes.Buffer
	ocrCmd.Stdout = &ocrOut
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(ocrOut.String()); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

var textCleaner = strings.NewReplacer(
	"\x00", "", // null bytes from broken extractors
	"\uFFFD", "", // unicode replacement character
	"\x1b", "", // stray escape sequences
	"\r", "",
	"\f", "\n",
)

func (s *PDFService) CleanText(text string) string {
	cleaned := textCleaner.Replace(text)
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return strings.TrimSpace(cleaned)
}
