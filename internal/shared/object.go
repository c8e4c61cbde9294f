// Package shared provides canonical type definitions used across grader modules.
package shared //nolint:revive // internal shared package is intentional

// ObjectInfo holds provider-level metadata for a blob.
// Returned by BucketProvider implementations alongside the blob bytes.
type ObjectInfo struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	ETag        string `json:"etag,omitempty"`
}
