package room

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "lifelink-backend/pkg/errors"
	"lifelink-backend/pkg/logger"
)

// Service provisions video rooms on the external conferencing provider and
// mints short-lived meeting tokens for them
type Service struct {
	httpClient  *http.Client
	apiBaseURL  string
	apiKey      string
	tokenExpiry time.Duration
}

// NewService creates a new room service
func NewService(apiBaseURL, apiKey string, tokenExpiry time.Duration) *Service {
	return &Service{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiBaseURL:  apiBaseURL,
		apiKey:      apiKey,
		tokenExpiry: tokenExpiry,
	}
}

// Room describes a provisioned video room
type Room struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type roomProperties struct {
	Exp               int64 `json:"exp"`
	EjectAtRoomExp    bool  `json:"eject_at_room_exp"`
	EnableScreenshare bool  `json:"enable_screenshare"`
	EnableChat        bool  `json:"enable_chat"`
}

type createTokenRequest struct {
	Properties tokenProperties `json:"properties"`
}

type tokenProperties struct {
	RoomName string `json:"room_name"`
	UserName string `json:"user_name,omitempty"`
	Exp      int64  `json:"exp"`
}

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type apiError struct {
	Error string `json:"error"`
	Info  string `json:"info"`
}

// EnsureRoom provisions the named room if it does not exist yet and returns
// it with a meeting token for the given display name. Creating a room that
// already exists is not an error; the existing room is reused.
func (s *Service) EnsureRoom(ctx context.Context, roomName, userName string) (*Room, error) {
	room, err := s.getRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	if room == nil {
		room, err = s.createRoom(ctx, roomName)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.createToken(ctx, roomName, userName)
	if err != nil {
		return nil, err
	}
	room.Token = token

	return room, nil
}

func (s *Service) getRoom(ctx context.Context, roomName string) (*Room, error) {
	resp, err := s.do(ctx, http.MethodGet, "/rooms/"+roomName, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.apiErrorFrom(resp)
	}

	var body roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to decode room response", err)
	}

	return &Room{Name: body.Name, URL: body.URL}, nil
}

func (s *Service) createRoom(ctx context.Context, roomName string) (*Room, error) {
	expiry := time.Now().Add(s.tokenExpiry).Unix()
	payload := createRoomRequest{
		Name:    roomName,
		Privacy: "private",
		Properties: roomProperties{
			Exp:               expiry,
			EjectAtRoomExp:    true,
			EnableScreenshare: true,
			EnableChat:        true,
		},
	}

	resp, err := s.do(ctx, http.MethodPost, "/rooms", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.apiErrorFrom(resp)
	}

	var body roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to decode room response", err)
	}

	logger.Info("Video room provisioned", zap.String("room_name", body.Name))

	return &Room{Name: body.Name, URL: body.URL}, nil
}

func (s *Service) createToken(ctx context.Context, roomName, userName string) (string, error) {
	payload := createTokenRequest{
		Properties: tokenProperties{
			RoomName: roomName,
			UserName: userName,
			Exp:      time.Now().Add(s.tokenExpiry).Unix(),
		},
	}

	resp, err := s.do(ctx, http.MethodPost, "/meeting-tokens", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", s.apiErrorFrom(resp)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to decode token response", err)
	}

	return body.Token, nil
}

func (s *Service) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to encode request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiBaseURL+path, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ServiceUnavailableError("Video provider is unreachable")
	}

	return resp, nil
}

func (s *Service) apiErrorFrom(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(resp.Body).Decode(&body)

	msg := body.Info
	if msg == "" {
		msg = fmt.Sprintf("Video provider returned status %d", resp.StatusCode)
	}

	logger.Error("Video provider error",
		zap.Int("status", resp.StatusCode),
		zap.String("error", body.Error),
		zap.String("info", body.Info))

	return apperrors.NewWithStatus(apperrors.ErrCodeServiceUnavail, msg, http.StatusBadGateway)
}
