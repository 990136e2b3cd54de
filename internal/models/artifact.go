package models

import "time"

// ArtifactInfo describes a rendered kolam image kept by the store.
type ArtifactInfo struct {
	ID               string    `json:"id"`
	FileName         string    `json:"fileName"`
	Format           string    `json:"format"` // "png", "svg"
	ContentType      string    `json:"contentType"`
	Seed             string    `json:"seed"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	NumMotifs        int       `json:"numMotifs"`
	InstructionCount int       `json:"instructionCount"`
	Size             int64     `json:"size"`
	CreatedAt        time.Time `json:"createdAt"`
	URL              string    `json:"url"`
}

// Clone returns a copy that callers may modify freely.
func (a *ArtifactInfo) Clone() *ArtifactInfo {
	c := *a
	return &c
}
