package controllers

import (
	"context"
	"net/http"

	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MediaController handles file uploads to the media library.
type MediaController struct {
	media    *services.MediaService
	maxBytes int64
	log      *zap.Logger
}

func NewMediaController(media *services.MediaService, maxBytes int64, log *zap.Logger) *MediaController {
	return &MediaController{media: media, maxBytes: maxBytes, log: log}
}

// UploadMedia reads a multipart form with a "file" part and optional "alt"
// and "folder" fields.
func (mc *MediaController) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, mc.maxBytes)
	if err := r.ParseMultipartForm(mc.maxBytes); err != nil {
		respondError(w, mc.log, invalid("upload must be a multipart form within %d bytes", mc.maxBytes))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, mc.log, invalid("file is required"))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	media, err := mc.media.Save(ctx, services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Alt:      r.FormValue("alt"),
		Folder:   r.FormValue("folder"),
		Body:     file,
	})
	if err != nil {
		respondError(w, mc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, media)
}

// UpdateMedia edits alt text and folder only.
func (mc *MediaController) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	var u services.MediaUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		respondError(w, mc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	media, err := mc.media.Update(ctx, mux.Vars(r)["id"], u)
	if err != nil {
		respondError(w, mc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, media)
}

// DeleteMedia removes the record and the stored file.
func (mc *MediaController) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := mc.media.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, mc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
