package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskTracker/internal/apperr"
	"taskTracker/internal/sla"
	"taskTracker/models"
)

// Form field names. They match the markup served by the earlier deployment
// so bookmarked forms and scripts keep working.
const (
	fieldUsername      = "username"
	fieldPassword      = "password"
	fieldTitle         = "task_name"
	fieldCategoryID    = "task_type_id"
	fieldPersonID      = "allocated_person_id"
	fieldStatus        = "status"
	fieldDueDate       = "due_date"
	fieldCompleteDate  = "complete_date"
	fieldPriority      = "priority"
	fieldRemarks       = "remarks"
	fieldExternalID    = "crm_id"
	fieldExternalSec   = "crm_password"
	fieldDoneByAdmin   = "done_by_admin"
	fieldProofFile     = "proof_file"
	fieldNewCategory   = "new_task_type"
	fieldNewPerson     = "new_allocated_person"
	multipartMemory    = 8 << 20
	formFieldsOverhead = 1 << 20
)

// parseForm parses either body encoding, capping the body at limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var err error
	if isMultipart(r) {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ErrPayloadTooLarge
		}
		return apperr.Invalid("form", err.Error())
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

type credentialsForm struct {
	Username string
	Password string
}

func readCredentialsForm(r *http.Request) credentialsForm {
	return credentialsForm{
		Username: strings.TrimSpace(r.PostFormValue(fieldUsername)),
		Password: r.PostFormValue(fieldPassword),
	}
}

// readTaskForm turns the submitted fields into a NewTask. Everything except
// the title is optional; malformed ids and dates are rejected together.
func readTaskForm(r *http.Request) (models.NewTask, error) {
	verr := apperr.NewValidationError()
	in := models.NewTask{
		Title:            strings.TrimSpace(r.PostFormValue(fieldTitle)),
		Status:           strings.TrimSpace(r.PostFormValue(fieldStatus)),
		Priority:         strings.TrimSpace(r.PostFormValue(fieldPriority)),
		Remarks:          r.PostFormValue(fieldRemarks),
		ExternalID:       strings.TrimSpace(r.PostFormValue(fieldExternalID)),
		ExternalSecret:   r.PostFormValue(fieldExternalSec),
		CompletedByAdmin: strings.TrimSpace(r.PostFormValue(fieldDoneByAdmin)),
	}
	if in.Title == "" {
		verr.Required(fieldTitle)
	}
	in.CategoryID = optionalID(verr, fieldCategoryID, r.PostFormValue(fieldCategoryID))
	in.PersonID = optionalID(verr, fieldPersonID, r.PostFormValue(fieldPersonID))
	in.DueAt = optionalDate(verr, fieldDueDate, r.PostFormValue(fieldDueDate))
	in.CompletedAt = optionalDate(verr, fieldCompleteDate, r.PostFormValue(fieldCompleteDate))
	return in, verr.OrNil()
}

func optionalID(verr *apperr.ValidationError, field, raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		verr.Add(field, "must be a positive integer")
		return nil
	}
	return &id
}

func optionalDate(verr *apperr.ValidationError, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := sla.ParseDate(raw)
	if err != nil {
		verr.Add(field, fmt.Sprintf("must be a date (%s)", sla.DateLayout))
		return nil
	}
	return &d
}

type mastersForm struct {
	NewCategory string
	NewPerson   string
}

func readMastersForm(r *http.Request) mastersForm {
	return mastersForm{
		NewCategory: strings.TrimSpace(r.PostFormValue(fieldNewCategory)),
		NewPerson:   strings.TrimSpace(r.PostFormValue(fieldNewPerson)),
	}
}
