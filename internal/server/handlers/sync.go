package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/internal/server/storage"
	"github.com/avoronov/goalkeeper/pkg/api"
)

// defaultPageSize caps a delta response at this many changes.
const defaultPageSize = 500

// SyncHandler serves batch pushes and delta pulls.
type SyncHandler struct {
	logger   *slog.Logger
	objects  storage.ObjectStorage
	pageSize int
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(logger *slog.Logger, objects storage.ObjectStorage) *SyncHandler {
	return &SyncHandler{
		logger:   logger,
		objects:  objects,
		pageSize: defaultPageSize,
	}
}

// BatchSync handles POST /api/v1/sync/batch. The response carries one
// verdict per submitted operation, in submission order.
func (h *SyncHandler) BatchSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.BatchSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode batch request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	results := make([]api.OperationResult, 0, len(req.Operations))
	for _, op := range req.Operations {
		results = append(results, h.applyOperation(r, userID, op))
	}

	h.logger.InfoContext(ctx, "batch applied",
		slog.String("user_id", userID),
		slog.String("client_id", req.ClientID),
		slog.Int("operations", len(req.Operations)))

	sendJSON(h.logger, w, api.BatchSyncResponse{Results: results}, http.StatusOK)
}

func (h *SyncHandler) applyOperation(r *http.Request, userID string, op api.BatchOperation) api.OperationResult {
	ctx := r.Context()

	if err := validateOperation(op); err != nil {
		return api.OperationResult{
			ObjectID:     op.ObjectID,
			Status:       api.ResultError,
			ErrorMessage: err.Error(),
		}
	}

	row, err := h.objects.Apply(ctx, storage.Operation{
		OwnerID:        userID,
		ObjectID:       op.ObjectID,
		ObjectType:     models.ObjectType(op.ObjectType),
		Kind:           op.Operation,
		Payload:        op.Data,
		IfMatchVersion: op.IfMatchVersion,
	})
	switch {
	case errors.Is(err, storage.ErrVersionConflict):
		return api.OperationResult{
			ObjectID:   op.ObjectID,
			Status:     api.ResultConflict,
			NewVersion: row.Version,
			ServerData: row.Payload,
		}
	case errors.Is(err, storage.ErrObjectNotFound):
		return api.OperationResult{
			ObjectID:     op.ObjectID,
			Status:       api.ResultError,
			ErrorMessage: "object not found",
		}
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to apply operation",
			slog.String("object_id", op.ObjectID),
			slog.Any("error", err))
		return api.OperationResult{
			ObjectID:     op.ObjectID,
			Status:       api.ResultError,
			ErrorMessage: "internal error",
		}
	}

	return api.OperationResult{
		ObjectID:   op.ObjectID,
		Status:     api.ResultSuccess,
		NewVersion: row.Version,
	}
}

// DeltaSync handles GET /api/v1/sync/delta?since=<unix_ms>.
func (h *SyncHandler) DeltaSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var since int64
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		var err error
		since, err = strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			sendError(h.logger, w, "invalid since parameter", http.StatusBadRequest)
			return
		}
	}

	rows, hasMore, err := h.objects.ChangesSince(ctx, userID, since, h.pageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load changes", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	changes := make([]api.DeltaChange, 0, len(rows))
	current := since
	for _, row := range rows {
		operation := api.OpUpdate
		if row.Deleted {
			operation = api.OpDelete
		}
		changes = append(changes, api.DeltaChange{
			ObjectID:   row.ObjectID,
			ObjectType: string(row.ObjectType),
			Operation:  operation,
			Data:       row.Payload,
			Version:    row.Version,
			Timestamp:  row.UpdatedAtMS,
		})
		current = row.UpdatedAtMS
	}

	h.logger.InfoContext(ctx, "delta served",
		slog.String("user_id", userID),
		slog.Int64("since", since),
		slog.Int("changes", len(changes)),
		slog.Bool("has_more", hasMore))

	sendJSON(h.logger, w, api.DeltaSyncResponse{
		Changes:          changes,
		CurrentTimestamp: current,
		HasMore:          hasMore,
	}, http.StatusOK)
}

func validateOperation(op api.BatchOperation) error {
	if op.ObjectID == "" {
		return errors.New("object_id is required")
	}
	if !slices.Contains(models.ObjectTypes, models.ObjectType(op.ObjectType)) {
		return errors.New("unknown object type " + op.ObjectType)
	}
	switch op.Operation {
	case api.OpCreate, api.OpUpdate, api.OpDelete:
	default:
		return errors.New("unknown operation " + op.Operation)
	}
	if op.Operation != api.OpDelete && len(op.Data) == 0 {
		return errors.New("data is required")
	}
	return nil
}
