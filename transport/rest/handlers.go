package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const maxBodySize = 1 << 10

type roomService interface {
	CreateRoom(size int, mode string) (string, error)
	Snapshot(roomID string) (*entity.Snapshot, error)
}

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	StatusHandler(w http.ResponseWriter, _ *http.Request)

	CreateRoom(w http.ResponseWriter, r *http.Request)
	GetRoom(w http.ResponseWriter, r *http.Request)
}

type handlers struct {
	logger      *slog.Logger
	rooms       roomService
	defaultSize int
}

func NewHandlers(logger *slog.Logger, rooms roomService, defaultSize int) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		rooms:       rooms,
		defaultSize: defaultSize,
	}
}

type createRoomRequest struct {
	Size *int   `json:"size"`
	Mode string `json:"mode"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "Tic Tac Toe Server Running",
	})
}

// CreateRoom allocates a room. An empty body means the default size in pvp mode.
func (that *handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateRoom")

	var req createRoomRequest

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	size := that.defaultSize
	if req.Size != nil {
		size = *req.Size
	}

	mode := req.Mode
	if mode == "" {
		mode = entity.ModePvP
	}

	roomID, err := that.rooms.CreateRoom(size, mode)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidRoomSize) || errors.Is(err, apperror.ErrInvalidMode) {
			that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		log.Error("failed to create room", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create room"})
		return
	}

	that.writeJSON(w, http.StatusOK, createRoomResponse{RoomID: roomID})
}

func (that *handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	snapshot, err := that.rooms.Snapshot(roomID)
	if err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			that.writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
			return
		}

		that.logger.Error("failed to get room", "roomID", roomID, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to get room"})
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Debug("failed to write response", "error", err)
	}
}
