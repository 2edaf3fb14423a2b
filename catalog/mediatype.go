package catalog

import "strings"

const (
	mediaTypeAsciiDoc = "text/asciidoc"
	mediaTypeHTML     = "text/html"
)

// MediaTypeFromExtension returns the media type for a file extension
// (including the leading dot), or an empty string when the extension is not
// recognized.
func MediaTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".adoc", ".asciidoc", ".asc":
		return mediaTypeAsciiDoc
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return mediaTypeHTML
	case ".css":
		return "text/css"
	case ".csv":
		return "text/csv"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".gz", ".tgz":
		return "application/gzip"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	case ".ico":
		return "image/x-icon"
	case ".java":
		return "text/x-java"
	case ".rb":
		return "text/x-ruby"
	case ".py":
		return "text/x-python"
	case ".go":
		return "text/x-go"
	case ".sh":
		return "application/x-sh"
	default:
		return ""
	}
}
