package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"taskTracker/repository"
)

func NewMastersPageHandler(log *slog.Logger, cats repository.CategoryRepositoryI, persons repository.PersonRepositoryI, p pages, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderReferencePage(w, r, log, cats, persons, p, "masters", timeout)
	}
}

// NewCreateMastersHandler inserts each submitted name independently: a
// duplicate category does not prevent the person from being added.
func NewCreateMastersHandler(log *slog.Logger, cats repository.CategoryRepositoryI, persons repository.PersonRepositoryI, limit int64, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(w, r, limit); err != nil {
			writeErr(w, r, log, err)
			return
		}
		in := readMastersForm(r)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var errs []error
		if in.NewCategory != "" {
			if c, err := cats.Create(ctx, in.NewCategory); err != nil {
				errs = append(errs, err)
			} else {
				log.Info("category created", "id", c.ID, "name", c.Name)
			}
		}
		if in.NewPerson != "" {
			if p, err := persons.Create(ctx, in.NewPerson); err != nil {
				errs = append(errs, err)
			} else {
				log.Info("person created", "id", p.ID, "name", p.Name)
			}
		}
		if err := errors.Join(errs...); err != nil {
			writeErr(w, r, log, err)
			return
		}
		http.Redirect(w, r, mastersPath, http.StatusSeeOther)
	}
}
