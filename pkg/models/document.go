package models

import "time"

// Document is a persisted Typst source owned by the document store.
type Document struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Content   string    `yaml:"content" json:"content"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// TemplateDescriptor is the catalog listing entry for a template.
type TemplateDescriptor struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Category    string `yaml:"category" json:"category"`
}

// Template is a descriptor together with its loaded content.
type Template struct {
	TemplateDescriptor `yaml:",inline"`
	Content            string `yaml:"content" json:"content"`
}

// RenderResult is what a compile produces for the preview.
// A failed compile is still a result: Err carries the compiler message
// and HTML carries the styled error payload.
type RenderResult struct {
	Version uint64 `yaml:"version" json:"version"`
	HTML    string `yaml:"html" json:"html"`
	Pages   int    `yaml:"pages" json:"pages"`
	Err     string `yaml:"error,omitempty" json:"error,omitempty"`
}

// OK reports whether the compile succeeded.
func (r RenderResult) OK() bool {
	return r.Err == ""
}

// RecentFile is an entry of the recently opened documents list.
type RecentFile struct {
	ID         string    `yaml:"id" json:"id"`
	Title      string    `yaml:"title" json:"title"`
	AccessedAt time.Time `yaml:"accessed_at" json:"accessed_at"`
}

// MaxRecentFiles bounds the recent documents list.
const MaxRecentFiles = 10
