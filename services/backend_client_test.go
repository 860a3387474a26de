package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adwizard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeProduct(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantErr     bool
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name: "Success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "https://example.com/item/123", r.PostFormValue("url"))
				json.NewEncoder(w).Encode(models.ScrapeResponse{
					Success:     true,
					SessionID:   "abc",
					ProductData: &models.ProductData{Title: "Widget", URL: "https://example.com/item/123"},
				})
			},
		},
		{
			name: "Logical failure with error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(models.ScrapeResponse{Success: false, Error: "bot detected"})
			},
			wantErr:     true,
			wantKind:    KindRequestFailed,
			wantMessage: "bot detected",
		},
		{
			name: "Success without session id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(models.ScrapeResponse{Success: true})
			},
			wantErr:     true,
			wantKind:    KindRequestFailed,
			wantMessage: "backend returned no session id",
		},
		{
			name: "HTTP error with FastAPI detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"detail": "Failed to scrape product data from URL"}`))
			},
			wantErr:     true,
			wantKind:    KindRequestFailed,
			wantMessage: "Failed to scrape product data from URL",
		},
		{
			name: "HTTP error with plain text body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream exploded"))
			},
			wantErr:     true,
			wantKind:    KindRequestFailed,
			wantMessage: "upstream exploded",
		},
		{
			name: "HTTP error with empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:     true,
			wantKind:    KindRequestFailed,
			wantMessage: "HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewBackendClient(server.URL, 0)
			resp, err := client.ScrapeProduct(context.Background(), "https://example.com/item/123")

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "abc", resp.SessionID)
				assert.Equal(t, "Widget", resp.ProductData.Title)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.wantMessage, MessageOf(err))
		})
	}
}

func TestScrapeProductBackendDown(t *testing.T) {
	// Closed server: connection refused
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewBackendClient(server.URL, 0)
	_, err := client.ScrapeProduct(context.Background(), "https://example.com/item/123")

	require.Error(t, err)
	assert.Equal(t, KindTransportUnavailable, KindOf(err))
	assert.Contains(t, MessageOf(err), "backend")

	var fe *FlowError
	require.True(t, errors.As(err, &fe))
	assert.NotNil(t, fe.Unwrap())
}

func TestCreateVideoFormRoundTrip(t *testing.T) {
	settings := models.RenderSettings{
		AspectRatio:      "9:16",
		Template:         "dynamic",
		VoiceTone:        "exciting",
		EnableKaraoke:    true,
		IncludeVoiceover: false,
		IncludeMusic:     true,
		BackgroundMusic:  "energetic",
	}

	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = map[string]string{}
		for key := range r.PostForm {
			got[key] = r.PostFormValue(key)
		}
		json.NewEncoder(w).Encode(models.VideoResponse{Success: true, SessionID: "abc", VideoPath: "/tmp/abc.mp4"})
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 0)
	resp, err := client.CreateVideo(context.Background(), "abc", settings)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/abc.mp4", resp.VideoPath)

	// Every field preserved, booleans as literal strings
	assert.Equal(t, map[string]string{
		"session_id":        "abc",
		"aspect_ratio":      "9:16",
		"template":          "dynamic",
		"voice_tone":        "exciting",
		"enable_karaoke":    "true",
		"include_voiceover": "false",
		"include_music":     "true",
		"background_music":  "energetic",
	}, got)
}

func TestGenerateScript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.PostFormValue("session_id"))
		assert.Equal(t, "friendly", r.PostFormValue("tone"))
		json.NewEncoder(w).Encode(models.ScriptResponse{
			Success:  true,
			AdScript: &models.AdScript{Hook: "Stop scrolling", Tone: "friendly"},
		})
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 0)
	resp, err := client.GenerateScript(context.Background(), "abc", "friendly")
	require.NoError(t, err)
	assert.Equal(t, "Stop scrolling", resp.AdScript.Hook)
}

func TestGetSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session/abc", r.URL.Path)
		json.NewEncoder(w).Encode(models.SessionRecord{
			SessionID:   "abc",
			Status:      "completed",
			ProductData: &models.ProductData{Title: "Widget"},
			VideoPath:   "/tmp/abc.mp4",
		})
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 0)
	record, err := client.GetSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)
	assert.Equal(t, "Widget", record.ProductData.Title)
}

func TestWaitForStatus(t *testing.T) {
	t.Run("Reaches target", func(t *testing.T) {
		statuses := []string{"scraping", "scraped"}
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := statuses[calls]
			if calls < len(statuses)-1 {
				calls++
			}
			json.NewEncoder(w).Encode(models.StatusRecord{SessionID: "abc", Status: status})
		}))
		defer server.Close()

		client := NewBackendClient(server.URL, 0)
		record, err := client.WaitForStatus(context.Background(), "abc", "scraped", time.Millisecond, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "scraped", record.Status)
	})

	t.Run("Error status aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.StatusRecord{SessionID: "abc", Status: "error", Error: "scrape blew up"})
		}))
		defer server.Close()

		client := NewBackendClient(server.URL, 0)
		_, err := client.WaitForStatus(context.Background(), "abc", "completed", time.Millisecond, time.Second)
		require.Error(t, err)
		assert.Equal(t, "scrape blew up", MessageOf(err))
	})
}

func TestDownloadVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/abc", r.URL.Path)
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake mp4 bytes"))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 0)
	body, contentType, err := client.DownloadVideo(context.Background(), "abc")
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, "video/mp4", contentType)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "fake mp4 bytes", string(data))
}

func TestDownloadURL(t *testing.T) {
	client := NewBackendClient("http://backend:8000/api/", 0)

	assert.Equal(t, "http://backend:8000/api/download/abc", client.DownloadURL("abc", false))
	assert.Equal(t, "http://backend:8000/api/download/abc?preview=true", client.DownloadURL("abc", true))
}

func TestCleanupSession(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 0)
	require.NoError(t, client.CleanupSession(context.Background(), "abc"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/session/abc", path)
}
