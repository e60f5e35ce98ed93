package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"yeyak/internal/nlparse"
	"yeyak/internal/reservations/service"
	apperrors "yeyak/pkg/errors"
	httputil "yeyak/pkg/http"
	"yeyak/pkg/logger"
	"yeyak/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
	clock   func() time.Time
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
		clock:   time.Now,
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.POST("/api/v1/reservations/text", h.CreateFromText)
	router.POST("/api/v1/reservations/options", h.Options)
	router.POST("/api/v1/reservations/commit", h.Commit)
	router.POST("/api/v1/reservations/close-expired", h.CloseExpired)
	router.GET("/api/v1/reservations", h.List)
	router.GET("/api/v1/schedule", h.Schedule)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Update)
	router.DELETE("/api/v1/reservations/id/:id", h.Delete)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeInvalidBody(w, "Create")
		return
	}

	req, err := body.toRequest()
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	record, err := h.service.Create(req, h.clock())
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, newReservationResponse(record)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) CreateFromText(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body textRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeInvalidBody(w, "CreateFromText")
		return
	}

	parsed, err := nlparse.Parse(body.Text)
	if err != nil {
		h.writeError(w, "CreateFromText", err)
		return
	}
	if parsed.Resource == "" {
		h.writeError(w, "CreateFromText", apperrors.InvalidInput("Could not find a resource name in text"))
		return
	}

	record, err := h.service.Create(parsed.Request(), h.clock())
	if err != nil {
		h.writeError(w, "CreateFromText", err)
		return
	}

	if err := httputil.WriteCreated(w, newReservationResponse(record)); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateFromText", "error", err)
	}
}

// Options proposes ways to satisfy a request. When the requested slot
// overlaps the caller's own reservations the response carries the three
// self-overlap resolutions; otherwise it carries availability alternatives,
// possibly none.
func (h *ReservationHandler) Options(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body optionsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeInvalidBody(w, "Options")
		return
	}

	resource, start, end, text, err := body.slot()
	if err != nil {
		h.writeError(w, "Options", err)
		return
	}
	now := h.clock()

	selfOptions, overlaps, err := h.service.ResolveSelfOverlap(resource, start, end, now)
	if err != nil {
		h.writeError(w, "Options", err)
		return
	}
	if len(selfOptions) > 0 {
		h.writeSuccess(w, "Options", optionsResponse{
			Mode:     "self_overlap",
			Text:     text,
			Options:  newOptionResponses(selfOptions),
			Overlaps: newReservationResponses(overlaps),
		})
		return
	}

	limit := body.Limit
	if limit <= 0 {
		limit = defaultOptionLimit
	}
	options, err := h.service.SuggestOptions(resource, start, end, now, limit)
	if err != nil {
		h.writeError(w, "Options", err)
		return
	}

	h.writeSuccess(w, "Options", optionsResponse{
		Mode:    "availability",
		Text:    text,
		Options: newOptionResponses(options),
	})
}

// Commit executes one previously proposed option.
func (h *ReservationHandler) Commit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body commitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeInvalidBody(w, "Commit")
		return
	}

	option, err := body.Option.toOption()
	if err != nil {
		h.writeError(w, "Commit", err)
		return
	}
	now := h.clock()

	switch option.Strategy {
	case model.StrategyRequested, model.StrategyShiftBefore, model.StrategyShiftAfter, model.StrategyOtherResource:
		record, err := h.service.Create(&model.ReservationRequest{
			Resource:    option.Resource,
			Start:       option.Start,
			End:         option.End,
			Owner:       model.OwnerSelf,
			RequestText: body.Text,
		}, now)
		if err != nil {
			h.writeError(w, "Commit", err)
			return
		}
		if err := httputil.WriteCreated(w, newReservationResponse(record)); err != nil {
			h.log.Error("failed to write created response", "handler", "Commit", "error", err)
		}

	case model.StrategyMergeExisting:
		record, err := h.service.CommitMerge(option.Resource, option.Start, option.End, option.ReservationIDs, body.Text, now)
		if err != nil {
			h.writeError(w, "Commit", err)
			return
		}
		if err := httputil.WriteCreated(w, newReservationResponse(record)); err != nil {
			h.log.Error("failed to write created response", "handler", "Commit", "error", err)
		}

	case model.StrategyReplaceExisting:
		record, err := h.service.CommitReplace(option.Resource, option.Start, option.End, option.ReservationIDs, body.Text, now)
		if err != nil {
			h.writeError(w, "Commit", err)
			return
		}
		if err := httputil.WriteCreated(w, newReservationResponse(record)); err != nil {
			h.log.Error("failed to write created response", "handler", "Commit", "error", err)
		}

	case model.StrategyKeepExisting:
		record, err := h.service.KeepExisting(option.ReservationIDs)
		if err != nil {
			h.writeError(w, "Commit", err)
			return
		}
		kept := newReservationResponse(record)
		kept.ChangeSource = model.ChangeKept
		h.writeSuccess(w, "Commit", kept)

	default:
		h.writeError(w, "Commit", apperrors.InvalidInput("Unknown option strategy: "+option.Strategy))
	}
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var records []model.ReservationRecord
	var err error
	switch set := r.URL.Query().Get("set"); set {
	case "", "active":
		records, err = h.service.ListActive(h.clock())
	case "closed":
		records, err = h.service.ListClosed()
	default:
		err = apperrors.InvalidInput("Unknown reservation set: " + set)
	}
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	switch owner := r.URL.Query().Get("owner"); owner {
	case "":
	case model.OwnerSelf, model.OwnerExternal:
		records = filterByOwner(records, owner)
	default:
		h.writeError(w, "List", apperrors.InvalidInput("Unknown owner filter: "+owner))
		return
	}

	h.writeSuccess(w, "List", newReservationResponses(records))
}

// filterByOwner narrows a listing to one ownership tag, ordered by start
// time and then resource name.
func filterByOwner(records []model.ReservationRecord, owner string) []model.ReservationRecord {
	owned := make([]model.ReservationRecord, 0, len(records))
	for _, record := range records {
		if record.Owner == owner {
			owned = append(owned, record)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].Start.Equal(owned[j].Start) {
			return owned[i].Start.Before(owned[j].Start)
		}
		return owned[i].Resource < owned[j].Resource
	})
	return owned
}

// Schedule returns the utilization overview used by the schedule board.
func (h *ReservationHandler) Schedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = model.PeriodDay
	}

	view, err := h.service.Schedule(period, h.clock())
	if err != nil {
		h.writeError(w, "Schedule", err)
		return
	}

	h.writeSuccess(w, "Schedule", newScheduleResponse(view))
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	record, err := h.service.GetActive(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", newReservationResponse(record))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeInvalidBody(w, "Update")
		return
	}

	updates, err := body.toUpdate()
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := h.requireSelfOwned(id); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	record, err := h.service.Update(id, updates, h.clock())
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", newReservationResponse(record))
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.requireSelfOwned(id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	record, err := h.service.Delete(id, h.clock())
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	h.writeSuccess(w, "Delete", newReservationResponse(record))
}

func (h *ReservationHandler) CloseExpired(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	closed, err := h.service.CloseExpired(h.clock())
	if err != nil {
		h.writeError(w, "CloseExpired", err)
		return
	}

	h.writeSuccess(w, "CloseExpired", map[string]int{"closed": closed})
}

// requireSelfOwned gates in-place changes: externally owned records are
// visible but not editable through this API.
func (h *ReservationHandler) requireSelfOwned(id string) error {
	record, err := h.service.GetActive(id)
	if err != nil {
		return err
	}
	if record.Owner != model.OwnerSelf {
		return apperrors.Forbidden("Externally owned reservations cannot be changed")
	}
	return nil
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *ReservationHandler) writeSuccess(w http.ResponseWriter, op string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", op, "error", err)
	}
}

func (h *ReservationHandler) writeInvalidBody(w http.ResponseWriter, op string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", op, "error", err)
	}
}
