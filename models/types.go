package models

import (
	"fmt"
	"time"
)

// Step is the coarse wizard position shown to the user.
type Step string

const (
	StepInput      Step = "input"
	StepSettings   Step = "settings"
	StepGenerating Step = "generating"
	StepResults    Step = "results"
)

// Status is the fine-grained stage tag within the generation pipeline.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusScraping         Status = "scraping"
	StatusScraped          Status = "scraped"
	StatusGeneratingScript Status = "generating_script"
	StatusScriptGenerated  Status = "script_generated"
	StatusCreatingVideo    Status = "creating_video"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
)

// ProductData is the product record scraped by the backend.
type ProductData struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Price        string   `json:"price,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Category     string   `json:"category,omitempty"`
	Rating       string   `json:"rating,omitempty"`
	ReviewCount  string   `json:"review_count,omitempty"`
	PrimaryImage string   `json:"primary_image,omitempty"`
	Images       []string `json:"downloaded_images,omitempty"`
	KeyFeatures  []string `json:"key_features,omitempty"`
	Availability string   `json:"availability,omitempty"`
	URL          string   `json:"url"`
	ScrapedAt    string   `json:"scraped_at,omitempty"`
}

// AdScript is the advertisement script generated by the backend.
type AdScript struct {
	Hook            string   `json:"hook"`
	Problem         string   `json:"problem"`
	Solution        string   `json:"solution"`
	Benefits        []string `json:"benefits"`
	CallToAction    string   `json:"call_to_action"`
	DurationSeconds int      `json:"duration_seconds"`
	Tone            string   `json:"tone"`
	TargetAudience  string   `json:"target_audience"`
}

// SessionRecord is the full backend session as returned by GET /session/{id}.
type SessionRecord struct {
	SessionID   string       `json:"session_id"`
	Status      string       `json:"status"`
	URL         string       `json:"url"`
	ProductData *ProductData `json:"product_data,omitempty"`
	AdScript    *AdScript    `json:"ad_script,omitempty"`
	VideoPath   string       `json:"video_path,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	CompletedAt string       `json:"completed_at,omitempty"`
}

// StatusRecord is the lightweight record returned by GET /status/{id}.
type StatusRecord struct {
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// ScrapeResponse is the envelope for POST /scrape-product.
type ScrapeResponse struct {
	Success     bool         `json:"success"`
	SessionID   string       `json:"session_id"`
	ProductData *ProductData `json:"product_data,omitempty"`
	Status      string       `json:"status,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ScriptResponse is the envelope for POST /generate-script.
type ScriptResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"session_id"`
	AdScript  *AdScript `json:"ad_script,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// VideoResponse is the envelope for POST /create-video.
type VideoResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"session_id"`
	VideoPath   string `json:"video_path"`
	Status      string `json:"status,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RenderSettings holds the user-chosen rendering configuration.
// All options are closed choices; Validate checks membership only.
type RenderSettings struct {
	AspectRatio      string `json:"aspect_ratio" form:"aspect_ratio" binding:"omitempty,oneof=16:9 9:16 1:1"`
	Template         string `json:"template" form:"template" binding:"omitempty,oneof=modern classic dynamic minimal"`
	VoiceTone        string `json:"voice_tone" form:"voice_tone" binding:"omitempty,oneof=professional friendly exciting calm authoritative"`
	EnableKaraoke    bool   `json:"enable_karaoke" form:"enable_karaoke"`
	IncludeVoiceover bool   `json:"include_voiceover" form:"include_voiceover"`
	IncludeMusic     bool   `json:"include_music" form:"include_music"`
	BackgroundMusic  string `json:"background_music" form:"background_music" binding:"omitempty,oneof=corporate energetic relaxed modern"`
}

// DefaultRenderSettings returns the defaults presented by the settings form.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		AspectRatio:      "16:9",
		Template:         "modern",
		VoiceTone:        "professional",
		EnableKaraoke:    true,
		IncludeVoiceover: true,
		IncludeMusic:     true,
		BackgroundMusic:  "corporate",
	}
}

var (
	validAspectRatios = map[string]bool{"16:9": true, "9:16": true, "1:1": true}
	validTemplates    = map[string]bool{"modern": true, "classic": true, "dynamic": true, "minimal": true}
	validVoiceTones   = map[string]bool{"professional": true, "friendly": true, "exciting": true, "calm": true, "authoritative": true}
	validMusicStyles  = map[string]bool{"corporate": true, "energetic": true, "relaxed": true, "modern": true}
)

// Validate checks that every option holds one of its enumerated values.
// BackgroundMusic is only checked when IncludeMusic is set.
func (s RenderSettings) Validate() error {
	if !validAspectRatios[s.AspectRatio] {
		return fmt.Errorf("invalid aspect_ratio %q", s.AspectRatio)
	}
	if !validTemplates[s.Template] {
		return fmt.Errorf("invalid template %q", s.Template)
	}
	if !validVoiceTones[s.VoiceTone] {
		return fmt.Errorf("invalid voice_tone %q", s.VoiceTone)
	}
	if s.IncludeMusic && !validMusicStyles[s.BackgroundMusic] {
		return fmt.Errorf("invalid background_music %q", s.BackgroundMusic)
	}
	return nil
}

// WorkflowState is the single state object owned by one workflow instance.
// The presentation layer reads snapshots of it but never mutates it.
type WorkflowState struct {
	Step             Step           `json:"step"`
	Status           Status         `json:"status"`
	Progress         int            `json:"progress"`
	CurrentOperation string         `json:"current_operation"`
	Error            string         `json:"error,omitempty"`
	SessionID        string         `json:"session_id,omitempty"`
	ProductData      *ProductData   `json:"product_data,omitempty"`
	AdScript         *AdScript      `json:"ad_script,omitempty"`
	VideoPath        string         `json:"video_path,omitempty"`
	Settings         RenderSettings `json:"settings"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewWorkflowState returns the zero state a workflow starts from and
// returns to on reset.
func NewWorkflowState() WorkflowState {
	return WorkflowState{
		Step:             StepInput,
		Status:           StatusIdle,
		Progress:         0,
		CurrentOperation: "Waiting for product URL",
		Settings:         DefaultRenderSettings(),
		UpdatedAt:        time.Now(),
	}
}
