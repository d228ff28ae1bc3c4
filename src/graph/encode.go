package graph

import "encoding/base64"

// DataURIPrefix precedes the base64 payload on stdout.
const DataURIPrefix = "data:image/png;base64,"

// EncodeDataURI wraps finished PNG bytes into an inline image data URI.
func EncodeDataURI(png []byte) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString(png)
}
