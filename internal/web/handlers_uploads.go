package web

import (
	"log/slog"
	"net/http"

	"taskTracker/internal/upload"
)

func NewServeUploadHandler(log *slog.Logger, uploads *upload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, info, err := uploads.Open(r.PathValue("name"))
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		defer f.Close()
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}
