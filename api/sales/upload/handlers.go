package upload

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"SalesScope/api"
	"SalesScope/api/constants"
)

// UploadSalesHandler accepts a multipart sales export, stores the original
// file, then runs it through the ingestion pipeline.
func UploadSalesHandler(db *sql.DB, pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(100 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		entity := strings.TrimSpace(r.FormValue("entity"))
		if entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileRequired)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}

		objectPath := BuildObjectPath(entity, header.Filename)
		if err := UploadToSupabase(r.Context(), data, objectPath); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrStorageUploadFailed+err.Error())
			return
		}
		if isS3Enabled() {
			// detached from the request context so a fast response does
			// not cancel the archive copy
			go func(path string, body []byte) {
				if _, err := ArchiveToS3(context.Background(), path, body); err != nil {
					logUpload(path, fmt.Sprintf("s3 archive failed: %v", err))
				}
			}(objectPath, data)
		}

		summary, err := NewPipeline(db, pool).Run(r.Context(), entity, header.Filename, objectPath, "", data)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.RespondWithJSON(w, summary)
	})
}

// ProcessUploadRequest re-processes a file already sitting in storage.
type ProcessUploadRequest struct {
	StoragePath string `json:"storagePath"`
	Entity      string `json:"entity"`
	FileName    string `json:"fileName"`
	// HistoryID reuses an existing history row instead of opening a new
	// one; used when retrying a failed upload.
	HistoryID string `json:"historyId"`
}

// ProcessUploadHandler runs the pipeline against a stored object. Used by
// the UI to retry a failed upload without re-sending the file.
func ProcessUploadHandler(db *sql.DB, pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req ProcessUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		req.StoragePath = strings.TrimSpace(req.StoragePath)
		req.Entity = strings.TrimSpace(req.Entity)
		req.FileName = strings.TrimSpace(req.FileName)
		if req.StoragePath == "" || req.Entity == "" || req.FileName == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrStoragePathRequired)
			return
		}

		data, err := DownloadFromSupabase(r.Context(), req.StoragePath)
		if err != nil {
			api.RespondWithError(w, http.StatusBadGateway, err.Error())
			return
		}

		summary, err := NewPipeline(db, pool).Run(r.Context(), req.Entity, req.FileName, req.StoragePath, strings.TrimSpace(req.HistoryID), data)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.RespondWithJSON(w, summary)
	})
}
