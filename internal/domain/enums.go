package domain

// AllowedContentTypes is the set of content types accepted for sheet images,
// keyed by the value http.DetectContentType reports.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}
