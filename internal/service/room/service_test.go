package room

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newProviderStub(t *testing.T, existingRooms map[string]bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/rooms/"):]
		if !existingRooms[name] {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not-found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"name": name,
			"url":  "https://video.example.com/" + name,
		})
	})
	mux.HandleFunc("POST /rooms", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name    string `json:"name"`
			Privacy string `json:"privacy"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "private", body.Privacy)
		existingRooms[body.Name] = true
		json.NewEncoder(w).Encode(map[string]string{
			"name": body.Name,
			"url":  "https://video.example.com/" + body.Name,
		})
	})
	mux.HandleFunc("POST /meeting-tokens", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body struct {
			Properties struct {
				RoomName string `json:"room_name"`
				Exp      int64  `json:"exp"`
			} `json:"properties"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// token expiry should be about an hour out
		assert.InDelta(t, time.Now().Add(time.Hour).Unix(), body.Properties.Exp, 60)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + body.Properties.RoomName})
	})

	return httptest.NewServer(mux)
}

func TestEnsureRoom_CreatesMissingRoom(t *testing.T) {
	rooms := map[string]bool{}
	server := newProviderStub(t, rooms)
	defer server.Close()

	service := NewService(server.URL, "test-key", time.Hour)

	room, err := service.EnsureRoom(context.Background(), "conference-abc-123", "Dr. A")

	assert.NoError(t, err)
	assert.Equal(t, "conference-abc-123", room.Name)
	assert.Equal(t, "https://video.example.com/conference-abc-123", room.URL)
	assert.Equal(t, "tok-conference-abc-123", room.Token)
	assert.True(t, rooms["conference-abc-123"])
}

func TestEnsureRoom_ReusesExistingRoom(t *testing.T) {
	rooms := map[string]bool{"conference-abc-123": true}
	server := newProviderStub(t, rooms)
	defer server.Close()

	service := NewService(server.URL, "test-key", time.Hour)

	room, err := service.EnsureRoom(context.Background(), "conference-abc-123", "Dr. B")

	assert.NoError(t, err)
	assert.Equal(t, "tok-conference-abc-123", room.Token)
}

func TestEnsureRoom_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "server-error", "info": "boom"})
	}))
	defer server.Close()

	service := NewService(server.URL, "test-key", time.Hour)

	_, err := service.EnsureRoom(context.Background(), "conference-abc-123", "Dr. A")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEnsureRoom_ProviderUnreachable(t *testing.T) {
	service := NewService("http://127.0.0.1:1", "test-key", time.Hour)

	_, err := service.EnsureRoom(context.Background(), "conference-abc-123", "Dr. A")

	assert.Error(t, err)
}
