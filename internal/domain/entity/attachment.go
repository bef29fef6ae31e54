package entity

import "time"

// MaxAttachmentSize bounds IMAGE and FILE uploads.
const MaxAttachmentSize = 10 << 20

// UploadTicket lets a client upload one attachment straight to storage. The
// message is sent afterwards with PublicURL.
type UploadTicket struct {
	UploadURL   string    `json:"upload_url"`
	PublicURL   string    `json:"public_url"`
	ObjectName  string    `json:"object_name"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
