package services

import (
	"context"
	"log"
	"sync"
	"time"

	"adwizard/models"
)

// Event is a workflow state machine input. Events come from user actions
// or from transport completions, never from the presentation layer
// mutating state directly.
type Event interface {
	isEvent()
}

// EventURLSubmitted begins stage 1 from the input step.
type EventURLSubmitted struct{}

// EventScrapeSucceeded stores the new session and its product data.
type EventScrapeSucceeded struct {
	SessionID string
	Product   *models.ProductData
}

// EventSettingsAdvanced moves the wizard step to settings after the
// post-scrape delay; the stage status is untouched.
type EventSettingsAdvanced struct{}

// EventSettingsConfirmed begins stage 2 with the confirmed settings.
type EventSettingsConfirmed struct {
	Settings models.RenderSettings
}

// EventScriptSucceeded stores the generated ad script.
type EventScriptSucceeded struct {
	Script *models.AdScript
}

// EventVideoStarted begins stage 3 after the post-script delay.
type EventVideoStarted struct{}

// EventVideoSucceeded stores the video reference and completes the run.
type EventVideoSucceeded struct {
	VideoPath string
}

// EventStageFailed records a failure in whichever stage was running.
// Progress and wizard step are left unchanged.
type EventStageFailed struct {
	Op      string
	Message string
}

// EventSessionRefreshed reconciles the local state with the backend's
// session record after entering the results step.
type EventSessionRefreshed struct {
	Record *models.SessionRecord
}

// EventReset returns the workflow to the initial state.
type EventReset struct{}

func (EventURLSubmitted) isEvent()      {}
func (EventScrapeSucceeded) isEvent()   {}
func (EventSettingsAdvanced) isEvent()  {}
func (EventSettingsConfirmed) isEvent() {}
func (EventScriptSucceeded) isEvent()   {}
func (EventVideoStarted) isEvent()      {}
func (EventVideoSucceeded) isEvent()    {}
func (EventStageFailed) isEvent()       {}
func (EventSessionRefreshed) isEvent()  {}
func (EventReset) isEvent()             {}

// Transition applies one event to a workflow state and returns the next
// state. It is a pure function; all orchestration (transport calls,
// delays, staleness guards) lives in Workflow. An error state absorbs
// every event except a reset.
func Transition(s models.WorkflowState, ev Event) models.WorkflowState {
	if s.Status == models.StatusError {
		if _, ok := ev.(EventReset); !ok {
			return s
		}
	}

	switch e := ev.(type) {
	case EventURLSubmitted:
		s.Step = models.StepInput
		s.Status = models.StatusScraping
		s.Progress = 10
		s.CurrentOperation = "Scraping product page"
		s.Error = ""

	case EventScrapeSucceeded:
		s.Status = models.StatusScraped
		s.Progress = 25
		s.SessionID = e.SessionID
		s.ProductData = e.Product
		s.CurrentOperation = "Product data scraped"

	case EventSettingsAdvanced:
		s.Step = models.StepSettings

	case EventSettingsConfirmed:
		s.Settings = e.Settings
		s.Step = models.StepGenerating
		s.Status = models.StatusGeneratingScript
		s.Progress = 35
		s.CurrentOperation = "Generating ad script"

	case EventScriptSucceeded:
		s.Status = models.StatusScriptGenerated
		s.Progress = 50
		s.AdScript = e.Script
		s.CurrentOperation = "Ad script generated"

	case EventVideoStarted:
		s.Status = models.StatusCreatingVideo
		s.Progress = 60
		s.CurrentOperation = "Creating video"

	case EventVideoSucceeded:
		s.Status = models.StatusCompleted
		s.Progress = 100
		s.VideoPath = e.VideoPath
		s.Step = models.StepResults
		s.CurrentOperation = "Video ready"

	case EventStageFailed:
		s.Status = models.StatusError
		s.Error = e.Message
		s.CurrentOperation = e.Op

	case EventSessionRefreshed:
		if e.Record.ProductData != nil {
			s.ProductData = e.Record.ProductData
		}
		if e.Record.AdScript != nil {
			s.AdScript = e.Record.AdScript
		}
		if e.Record.VideoPath != "" {
			s.VideoPath = e.Record.VideoPath
		}

	case EventReset:
		s = models.NewWorkflowState()
	}

	s.UpdatedAt = time.Now()
	return s
}

// Workflow owns one end-to-end generation attempt. Stage calls run in a
// background goroutine; the presentation layer polls Snapshot. Every
// asynchronous event application is tagged with the epoch current when
// the stage started, so completions arriving after a reset are dropped.
type Workflow struct {
	client       *BackendClient
	advanceDelay time.Duration
	flowID       string

	mu    sync.Mutex
	state models.WorkflowState
	epoch uint64
}

// NewWorkflow creates a workflow in the initial state. advanceDelay is
// the pause before the automatic step advances (Scraped -> settings,
// ScriptGenerated -> video).
func NewWorkflow(client *BackendClient, advanceDelay time.Duration, flowID string) *Workflow {
	return &Workflow{
		client:       client,
		advanceDelay: advanceDelay,
		flowID:       flowID,
		state:        models.NewWorkflowState(),
	}
}

// Snapshot returns a copy of the current workflow state.
func (w *Workflow) Snapshot() models.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SubmitURL begins stage 1. The state flips to Scraping before the
// transport call is issued; the scrape itself runs in the background.
func (w *Workflow) SubmitURL(productURL string) models.WorkflowState {
	w.mu.Lock()

	if productURL == "" {
		w.state = Transition(w.state, EventStageFailed{
			Op:      "Scraping product page",
			Message: "product URL is required",
		})
		state := w.state
		w.mu.Unlock()
		return state
	}

	if w.state.Status != models.StatusIdle {
		state := w.state
		w.mu.Unlock()
		return state
	}

	w.state = Transition(w.state, EventURLSubmitted{})
	state := w.state
	epoch := w.epoch
	w.mu.Unlock()

	go w.runScrape(epoch, productURL)
	return state
}

// ConfirmSettings begins stages 2 and 3. A missing session id is a local
// precondition failure and never reaches the network.
func (w *Workflow) ConfirmSettings(settings models.RenderSettings) models.WorkflowState {
	w.mu.Lock()

	if w.state.SessionID == "" {
		w.state = Transition(w.state, EventStageFailed{
			Op:      "Confirming settings",
			Message: "missing session: submit a product URL first",
		})
		state := w.state
		w.mu.Unlock()
		return state
	}

	if w.state.Status != models.StatusScraped {
		state := w.state
		w.mu.Unlock()
		return state
	}

	if err := settings.Validate(); err != nil {
		w.state = Transition(w.state, EventStageFailed{
			Op:      "Confirming settings",
			Message: err.Error(),
		})
		state := w.state
		w.mu.Unlock()
		return state
	}

	w.state = Transition(w.state, EventSettingsConfirmed{Settings: settings})
	state := w.state
	epoch := w.epoch
	sessionID := w.state.SessionID
	w.mu.Unlock()

	go w.runGeneration(epoch, sessionID, settings)
	return state
}

// Reset discards all session-scoped state and returns to the initial
// state. It never cancels in-flight backend work; bumping the epoch makes
// any late completion land on the floor. A completed backend session is
// cleaned up best-effort.
func (w *Workflow) Reset() models.WorkflowState {
	w.mu.Lock()
	w.epoch++
	prior := w.state
	w.state = models.NewWorkflowState()
	state := w.state
	w.mu.Unlock()

	if prior.SessionID != "" && prior.Status == models.StatusCompleted {
		go func(sessionID string) {
			if err := w.client.CleanupSession(context.Background(), sessionID); err != nil {
				log.Printf("[Flow %s] session cleanup failed: %v", w.flowID, err)
			}
		}(prior.SessionID)
	}

	return state
}

// DownloadSession returns the session id to download, failing fast when
// no completed video exists.
func (w *Workflow) DownloadSession() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.SessionID == "" {
		return "", precondition("download", "missing session: nothing to download")
	}
	if w.state.Status != models.StatusCompleted {
		return "", precondition("download", "video is not ready yet")
	}
	return w.state.SessionID, nil
}

func (w *Workflow) runScrape(epoch uint64, productURL string) {
	resp, err := w.client.ScrapeProduct(context.Background(), productURL)
	if err != nil {
		w.applyAt(epoch, EventStageFailed{Op: "Scraping product page", Message: MessageOf(err)})
		return
	}

	if !w.applyAt(epoch, EventScrapeSucceeded{SessionID: resp.SessionID, Product: resp.ProductData}) {
		return
	}

	time.Sleep(w.advanceDelay)
	w.applyAt(epoch, EventSettingsAdvanced{})
}

func (w *Workflow) runGeneration(epoch uint64, sessionID string, settings models.RenderSettings) {
	script, err := w.client.GenerateScript(context.Background(), sessionID, settings.VoiceTone)
	if err != nil {
		w.applyAt(epoch, EventStageFailed{Op: "Generating ad script", Message: MessageOf(err)})
		return
	}
	if !w.applyAt(epoch, EventScriptSucceeded{Script: script.AdScript}) {
		return
	}

	time.Sleep(w.advanceDelay)
	if !w.applyAt(epoch, EventVideoStarted{}) {
		return
	}

	video, err := w.client.CreateVideo(context.Background(), sessionID, settings)
	if err != nil {
		w.applyAt(epoch, EventStageFailed{Op: "Creating video", Message: MessageOf(err)})
		return
	}
	if !w.applyAt(epoch, EventVideoSucceeded{VideoPath: video.VideoPath}) {
		return
	}

	// Best-effort reconciliation with the backend record; a failure here
	// never reverts the completed local flow.
	record, err := w.client.GetSession(context.Background(), sessionID)
	if err != nil {
		log.Printf("[Flow %s] results refresh failed: %v", w.flowID, err)
		return
	}
	w.applyAt(epoch, EventSessionRefreshed{Record: record})
}

// applyAt applies an event only if the workflow has not been reset since
// the stage started. Returns false when the event was stale.
func (w *Workflow) applyAt(epoch uint64, ev Event) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if epoch != w.epoch {
		log.Printf("[Flow %s] dropping stale %T (epoch %d, now %d)", w.flowID, ev, epoch, w.epoch)
		return false
	}

	w.state = Transition(w.state, ev)
	log.Printf("[Flow %s] %s (%d%%) status=%s", w.flowID, w.state.CurrentOperation, w.state.Progress, w.state.Status)
	return true
}
