// Package audit exposes the prediction audit trail over HTTP.
package audit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MelomanCat/getaround-project/api"
	"github.com/MelomanCat/getaround-project/infra/audit"
)

// NewHandler returns the GET /audit/predictions handler.
func NewHandler(store audit.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid_argument", err.Error())
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		if records == nil {
			records = []audit.Record{}
		}
		api.JSON(w, http.StatusOK, records)
	})
}

func parseQuery(r *http.Request) (audit.Query, error) {
	values := r.URL.Query()
	q := audit.Query{Outcome: values.Get("outcome")}
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		s := values.Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return audit.Query{}, fmt.Errorf("%s must be RFC3339, got %q", name, s)
		}
		*dst = t
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return audit.Query{}, fmt.Errorf("end %s is before start %s", q.End.Format(time.RFC3339), q.Start.Format(time.RFC3339))
	}
	return q, nil
}
