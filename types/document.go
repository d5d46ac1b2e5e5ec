package types

// Document represents an indexed chunk of an uploaded paper
type Document struct {
	ID        string   `bson:"_id" json:"id"`
	Content   string   `bson:"content" json:"content"`
	Metadata  Metadata `bson:"metadata" json:"metadata"`
	CreatedAt int64    `bson:"created_at" json:"created_at"`
}

// Metadata contains additional document information
type Metadata struct {
	Title  string            `bson:"title" json:"title"`
	Source string            `bson:"source" json:"source"`
	Tags   []string          `bson:"tags" json:"tags"`
	Custom map[string]string `bson:"custom" json:"custom"`
}

// DocumentChunk is a piece of extracted text on its way into the index
type DocumentChunk struct {
	Content  string           // The actual text content
	Page     int              // Page number where the chunk is from
	Metadata DocumentMetadata // Associated metadata for the chunk
}

// DocumentMetadata carries per-page context for a chunk
type DocumentMetadata struct {
	Title      string   // Title of the paper
	Source     string   // Source file path or object key
	Tags       []string // User supplied tags
	PageNum    int      // Current page number
	TotalPages int      // Total number of pages in the document
}

// DocumentServiceConfig contains configuration options for PDF processing
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks
	OverlapSize  int // Size of overlap between chunks
}

type UploadRequest struct {
	Title  string   `json:"title"`
	Source string   `json:"source"`
	Tags   []string `json:"tags"`
}
