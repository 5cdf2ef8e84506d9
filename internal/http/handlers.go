package http

import (
	"errors"
	"fmt"
	"net/http"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/services"
	"fluxo/internal/table"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			s.respond(w, r, ServiceUnavailableError("not ready"))
			return
		}
	}
	s.respond(w, r, NewJSONResponse().Body(map[string]string{"status": "ready"}))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.filter(w, r)
	if !ok {
		return
	}
	d, err := s.deps.Dashboard.Dashboard(r.Context(), filter, ParseTableQuery(r.URL.Query()))
	if err != nil {
		s.fail(w, r, "Dashboard failed", err)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(d))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.filter(w, r)
	if !ok {
		return
	}
	view, err := s.deps.Dashboard.Transactions(r.Context(), filter, ParseTableQuery(r.URL.Query()))
	if err != nil {
		s.fail(w, r, "Transaction listing failed", err)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(view))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.deps.Writer == nil {
		s.respond(w, r, NotImplementedError("backend is read-only"))
		return
	}

	t, err := DecodeTransaction(r, s.deps.Now().In(s.deps.Location))
	if err != nil {
		s.respond(w, r, BadRequestError(err.Error()))
		return
	}
	if err := t.Validate(); err != nil {
		logger.WarnContext(ctx, "Transaction rejected",
			log.NewFields().
				WithOperation(log.OpValidate).
				WithErrorType(log.ErrorTypeValidation).
				WithError(err).
				WithTransaction(t.Owner, string(t.Kind), core.FormatAmount(t.Value()), t.CategoryOrDefault()).
				ToSlice()...)
		s.respond(w, r, UnprocessableEntityError(err.Error()))
		return
	}

	saved, err := s.deps.Writer.Append(ctx, t)
	if err != nil {
		s.fail(w, r, "Transaction append failed", err)
		return
	}
	logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithTransaction(saved.Owner, string(saved.Kind), core.FormatAmount(saved.Value()), saved.CategoryOrDefault()).
			ToSlice()...)

	resp := NewJSONResponse().Status(http.StatusCreated).Body(saved)
	if id, ok := saved.IDValue(); ok {
		resp.Header("Location", fmt.Sprintf("/api/transactions/%d", id))
	}
	s.respond(w, r, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.filter(w, r)
	if !ok {
		return
	}
	rep, err := s.deps.Reports.Build(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "Report failed", err)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(rep))
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.filter(w, r)
	if !ok {
		return
	}
	rep, err := s.deps.Reports.Build(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "Report failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fluxo-%s.csv"`, rep.GeneratedAt.Format("20060102")))
	if err := services.WriteCSV(w, rep); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, remoteHost(r))
	s.respond(w, r, TooManyRequestsError("rate limit exceeded, try again later"))
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request) (core.FilterCriteria, bool) {
	f, err := ParseFilter(r.URL.Query(), s.deps.Location)
	if err != nil {
		s.respond(w, r, BadRequestError(err.Error()))
		return f, false
	}
	return f, true
}

// fail logs err and answers 500. Contract violations are programmer errors
// and are tagged as such.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errType := log.ErrorTypeInternal
	if errors.Is(err, table.ErrContract) {
		errType = log.ErrorTypeContract
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldError, err,
		log.FieldErrorType, errType)
	s.respond(w, r, InternalServerError("internal error"))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *JSONResponseBuilder) {
	if err := b.Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}
