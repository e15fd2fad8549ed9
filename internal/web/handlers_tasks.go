package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskTracker/internal/auth"
	"taskTracker/internal/upload"
	"taskTracker/repository"
)

func NewListTasksHandler(log *slog.Logger, tasks repository.TaskRepositoryI, p pages, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := tasks.List(ctx)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		user, _ := auth.FromContext(r.Context())
		data := indexPage{pageData: pageData{User: user}, Tasks: taskRows(items)}
		if err := p.render(w, http.StatusOK, "index", data); err != nil {
			writeErr(w, r, log, err)
		}
	}
}

func NewAddTaskPageHandler(log *slog.Logger, cats repository.CategoryRepositoryI, persons repository.PersonRepositoryI, p pages, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderReferencePage(w, r, log, cats, persons, p, "add_task", timeout)
	}
}

// NewCreateTaskHandler stages the proof file and moves it into place only
// once the task is stored, so a rejected submission neither leaves a file
// behind nor replaces an existing proof.
func NewCreateTaskHandler(log *slog.Logger, tasks repository.TaskRepositoryI, uploads *upload.Store, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(w, r, uploads.MaxBytes()+formFieldsOverhead); err != nil {
			writeErr(w, r, log, err)
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		in, err := readTaskForm(r)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}

		proof, err := uploads.StageFormFile(r, fieldProofFile)
		switch {
		case errors.Is(err, upload.ErrNoFile):
		case err != nil:
			writeErr(w, r, log, err)
			return
		default:
			defer proof.Discard()
			in.ProofFile = &proof.Name
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := tasks.Create(ctx, in)
		if err != nil {
			writeErr(w, r, log, err)
			return
		}
		if proof != nil {
			if err := proof.Commit(); err != nil {
				writeErr(w, r, log, fmt.Errorf("task %d stored without its proof file: %w", t.ID, err))
				return
			}
		}
		log.Info("task created", "task_id", t.ID, "proof", in.ProofFile != nil)
		http.Redirect(w, r, indexPath, http.StatusSeeOther)
	}
}

func renderReferencePage(w http.ResponseWriter, r *http.Request, log *slog.Logger, cats repository.CategoryRepositoryI, persons repository.PersonRepositoryI, p pages, page string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	cs, err := cats.List(ctx)
	if err != nil {
		writeErr(w, r, log, err)
		return
	}
	ps, err := persons.List(ctx)
	if err != nil {
		writeErr(w, r, log, err)
		return
	}
	user, _ := auth.FromContext(r.Context())
	data := referencePage{pageData: pageData{User: user}, Categories: cs, Persons: ps}
	if err := p.render(w, http.StatusOK, page, data); err != nil {
		writeErr(w, r, log, err)
	}
}
