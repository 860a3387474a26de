package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"adwizard/config"
	"adwizard/models"
	"adwizard/services"
	"adwizard/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const flowCookie = "flow_id"

// WizardHandler is the presentation shell: it keys one workflow per
// browser session and feeds user actions into the state machine. It only
// reads workflow state; all mutation happens inside services.Workflow.
type WizardHandler struct {
	cfg    *config.Config
	client *services.BackendClient

	// In-memory flow tracking
	flows    map[string]*services.Workflow
	flowsMux sync.RWMutex
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(cfg *config.Config) *WizardHandler {
	client := services.NewBackendClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	return &WizardHandler{
		cfg:    cfg,
		client: client,
		flows:  make(map[string]*services.Workflow),
	}
}

// flow returns the workflow for the caller's browser session, creating
// both the cookie and the workflow on first contact.
func (h *WizardHandler) flow(c *gin.Context) *services.Workflow {
	flowID, err := c.Cookie(flowCookie)
	if err != nil || flowID == "" {
		flowID = uuid.New().String()
		c.SetCookie(flowCookie, flowID, 86400, "/", "", false, true)
	}

	h.flowsMux.RLock()
	wf, exists := h.flows[flowID]
	h.flowsMux.RUnlock()
	if exists {
		return wf
	}

	h.flowsMux.Lock()
	defer h.flowsMux.Unlock()
	if wf, exists = h.flows[flowID]; exists {
		return wf
	}
	wf = services.NewWorkflow(h.client, h.cfg.StepAdvanceDelay, flowID)
	h.flows[flowID] = wf
	return wf
}

type scrapeRequest struct {
	URL string `form:"url" binding:"required"`
}

// Scrape handles POST /api/scrape
func (h *WizardHandler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	c.JSON(http.StatusOK, h.flow(c).SubmitURL(req.URL))
}

type settingsRequest struct {
	AspectRatio      string `form:"aspect_ratio,default=16:9" binding:"oneof=16:9 9:16 1:1"`
	Template         string `form:"template,default=modern" binding:"oneof=modern classic dynamic minimal"`
	VoiceTone        string `form:"voice_tone,default=professional" binding:"oneof=professional friendly exciting calm authoritative"`
	EnableKaraoke    bool   `form:"enable_karaoke,default=true"`
	IncludeVoiceover bool   `form:"include_voiceover,default=true"`
	IncludeMusic     bool   `form:"include_music,default=true"`
	BackgroundMusic  string `form:"background_music,default=corporate" binding:"oneof=corporate energetic relaxed modern"`
}

// ConfirmSettings handles POST /api/settings
func (h *WizardHandler) ConfirmSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings: " + err.Error()})
		return
	}

	settings := models.RenderSettings{
		AspectRatio:      req.AspectRatio,
		Template:         req.Template,
		VoiceTone:        req.VoiceTone,
		EnableKaraoke:    req.EnableKaraoke,
		IncludeVoiceover: req.IncludeVoiceover,
		IncludeMusic:     req.IncludeMusic,
		BackgroundMusic:  req.BackgroundMusic,
	}

	c.JSON(http.StatusOK, h.flow(c).ConfirmSettings(settings))
}

// State handles GET /api/state (polled by the UI)
func (h *WizardHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.flow(c).Snapshot())
}

// Reset handles POST /api/reset
func (h *WizardHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, h.flow(c).Reset())
}

// Download handles GET /api/download. With ?preview=true the video is
// streamed inline; otherwise it is cached to the temp dir and served as
// an attachment, with cleanup scheduled.
func (h *WizardHandler) Download(c *gin.Context) {
	wf := h.flow(c)

	sessionID, err := wf.DownloadSession()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": services.MessageOf(err)})
		return
	}

	body, contentType, err := h.client.DownloadVideo(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": services.MessageOf(err)})
		return
	}
	defer body.Close()

	if c.Query("preview") == "true" {
		c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
		return
	}

	flowID, _ := c.Cookie(flowCookie)
	videoPath := filepath.Join(h.cfg.TempDir, flowID, fmt.Sprintf("ad_video_%s.mp4", sessionID))
	if _, err := utils.SaveStream(body, videoPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cache video: " + err.Error()})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ad_video_%s.mp4", sessionID))
	c.File(videoPath)

	// Cached copy is only needed for this response
	utils.ScheduleCleanup(h.cfg.TempDir, flowID, 1*time.Hour)
}

// statusFor maps the error taxonomy onto HTTP statuses for the shell's
// own responses.
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindPrecondition:
		return http.StatusConflict
	case services.KindTransportUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
