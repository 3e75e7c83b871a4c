package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-photo-engine/internal/catalog"
	apperrors "go-photo-engine/internal/errors"
	"go-photo-engine/pkg/models"
)

func respond(t *testing.T, w http.ResponseWriter, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	image := []byte("image-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer credentials, got %q", got)
		}

		var payload struct {
			RequestID string   `json:"request_id"`
			Image     string   `json:"image"`
			StyleIDs  []string `json:"style_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if payload.RequestID != "req-1" {
			t.Errorf("Expected request id req-1, got %s", payload.RequestID)
		}
		decoded, err := base64.StdEncoding.DecodeString(payload.Image)
		if err != nil || string(decoded) != string(image) {
			t.Errorf("Expected base64 of original image, got %q", payload.Image)
		}
		if len(payload.StyleIDs) != 2 {
			t.Errorf("Expected 2 style ids, got %v", payload.StyleIDs)
		}

		respond(t, w, map[string]interface{}{
			"results": []map[string]string{
				{"style_id": "noir", "artifact_url": "https://cdn/noir.png"},
				{"style_id": "hdr", "artifact_url": "https://cdn/hdr.png"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second, catalog.Default())
	results, err := client.Submit(context.Background(), "req-1", image, []string{"noir", "hdr"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Origin != models.OriginRemote {
			t.Errorf("Expected origin remote, got %s", r.Origin)
		}
		if r.ArtifactRef == "" {
			t.Error("Expected non-empty artifact ref")
		}
	}
}

func TestSubmit_SparseResponseIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]interface{}{
			"results": []map[string]string{
				{"style_id": "noir", "artifact_url": "https://cdn/noir.png"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	results, err := client.Submit(context.Background(), "req-2", []byte("img"), []string{"noir", "hdr", "enhance"})
	if err != nil {
		t.Fatalf("Expected sparse response to succeed, got %v", err)
	}
	if len(results) != 1 || results[0].StyleID != "noir" {
		t.Errorf("Expected single noir result, got %+v", results)
	}
}

func TestSubmit_FiltersUnrequestedAndDuplicateStyles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]interface{}{
			"results": []map[string]string{
				{"style_id": "noir", "artifact_url": "https://cdn/noir-1.png"},
				{"style_id": "noir", "artifact_url": "https://cdn/noir-2.png"},
				{"style_id": "anime", "artifact_url": "https://cdn/anime.png"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	results, err := client.Submit(context.Background(), "req-3", []byte("img"), []string{"noir"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result after filtering, got %d", len(results))
	}
	if results[0].ArtifactRef != "https://cdn/noir-1.png" {
		t.Errorf("Expected first duplicate to win, got %s", results[0].ArtifactRef)
	}
}

func TestSubmit_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-4", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeRemoteUnauthorized) {
		t.Errorf("Expected remote_unauthorized error, got %v", err)
	}
}

func TestSubmit_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-5", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeRemoteUnavailable) {
		t.Errorf("Expected remote_unavailable error, got %v", err)
	}
}

func TestSubmit_GatewayTimeoutStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-6", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeRemoteTimeout) {
		t.Errorf("Expected remote_timeout error, got %v", err)
	}
}

func TestSubmit_SlowServerTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "", 50*time.Millisecond, catalog.Default())
	_, err := client.Submit(context.Background(), "req-7", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeRemoteTimeout) {
		t.Errorf("Expected remote_timeout error, got %v", err)
	}
}

func TestSubmit_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-8", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeMalformedResponse) {
		t.Errorf("Expected malformed_response error, got %v", err)
	}
}

func TestSubmit_MissingResultFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]interface{}{
			"results": []map[string]string{
				{"style_id": "noir"}, // no artifact url
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-9", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeMalformedResponse) {
		t.Errorf("Expected malformed_response error, got %v", err)
	}
}

func TestSubmit_NoEndpointConfigured(t *testing.T) {
	client := NewClient("", "", 5*time.Second, catalog.Default())
	_, err := client.Submit(context.Background(), "req-10", []byte("img"), []string{"noir"})
	if !apperrors.IsType(err, apperrors.ErrorTypeRemoteUnavailable) {
		t.Errorf("Expected remote_unavailable error, got %v", err)
	}
}

func TestSubmit_CancelledContextPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	_, err := client.Submit(ctx, "req-11", []byte("img"), []string{"noir"})
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if apperrors.IsType(err, apperrors.ErrorTypeRemoteTimeout) {
		t.Errorf("Cancellation must not surface as timeout, got %v", err)
	}
}

func TestSubmit_PremiumFlagFromCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, map[string]interface{}{
			"results": []map[string]string{
				{"style_id": "headshot", "artifact_url": "https://cdn/headshot.png"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, catalog.Default())
	results, err := client.Submit(context.Background(), "req-12", []byte("img"), []string{"headshot"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].PremiumOnly {
		t.Errorf("Expected premium flag from catalog, got %+v", results)
	}
}
