package media

import "time"

// MediaType labels the shape of a generated artifact.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeText  MediaType = "text"
)

// MediaUrls are the locations a generated artifact can be fetched from.
// For MediaTypeText both fields hold the text content itself rather than a
// URL, so callers never need a second round trip to read a text result.
type MediaUrls struct {
	Original  string
	Thumbnail string
}

// MediaMetadata carries provider-reported facts about a generation call
// that are useful for display or debugging but not needed to resolve
// downstream inputs.
type MediaMetadata struct {
	Provider   string
	Model      string
	DurationMS int64
	Width      int
	Height     int
	Format     string
	SizeBytes  int
	Extra      map[string]string
}

// MediaResult is the output recorded against a node after a successful
// generation call. ID and CreatedAt are stamped once, at the point a
// handler's result is accepted by the scheduler — a handler itself never
// needs to mint either.
type MediaResult struct {
	ID        string
	CreatedAt time.Time

	Type     MediaType
	Urls     MediaUrls
	Metadata MediaMetadata

	// Prompt is the exact text sent to the backend for this generation
	// (post-enrichment, if enrichment ran).
	Prompt string
	// OriginalPrompt is the pre-enrichment prompt; empty unless the handler
	// ran a prompt-enrichment pass.
	OriginalPrompt string
	// Params is a snapshot of the node's params at generation time, so a
	// later param change doesn't retroactively change what a past result
	// is understood to have been generated with.
	Params map[string]interface{}
}
