package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"utnode/internal/adapters/storage/document"
	"utnode/internal/domain/validation"
)

// fieldSpec describes one form field of a resource.
type fieldSpec struct {
	name     string // form key, also the JSON key
	label    string
	input    string // text, email, number, password or textarea
	markdown bool
	secret   bool // never shown or pre-filled
}

// store is the subset of document.Collection a resource needs.
type store[T any] interface {
	Insert(ctx context.Context, data T) (document.Record[T], error)
	FindAll(ctx context.Context) ([]document.Record[T], error)
	FindByID(ctx context.Context, id string) (document.Record[T], error)
	UpdateByID(ctx context.Context, id string, data T) (document.Record[T], error)
	DeleteByID(ctx context.Context, id string) error
}

// resource implements the seven CRUD operations for one entity type.
type resource[T any] struct {
	name   string // URL segment and collection
	label  string // singular, capitalised
	store  store[T]
	fields []fieldSpec

	// title names a record in lists and headings.
	title func(T) string
	// values returns the display value of every field, keyed by field name.
	values func(T) map[string]string
	// decode builds a T from the submitted form. existing is the stored value on
	// update and the zero value on create. Bad input yields validation.Violations.
	decode func(r *http.Request, existing T) (T, error)
	// afterCreate runs once a record is stored. It cannot fail the request.
	afterCreate func(ctx context.Context, rec document.Record[T])
}

func (res *resource[T]) base() string { return "/" + res.name }

// resourceView is what the generic templates know about a resource.
type resourceView struct {
	Name  string
	Label string
	Path  string
}

type cellView struct {
	Label    string
	Value    string
	Markdown bool
}

type rowView struct {
	ID    string
	Title string
	Cells []cellView
}

type fieldView struct {
	Name  string
	Label string
	Input string
	Value string
}

func (res *resource[T]) view() resourceView {
	return resourceView{Name: res.name, Label: res.label, Path: res.base()}
}

func (res *resource[T]) row(rec document.Record[T]) rowView {
	vals := res.values(rec.Data)
	out := rowView{ID: rec.ID, Title: res.title(rec.Data)}
	for _, f := range res.fields {
		if f.secret {
			continue
		}
		out.Cells = append(out.Cells, cellView{Label: f.label, Value: vals[f.name], Markdown: f.markdown})
	}
	return out
}

func (res *resource[T]) formFields(data *T) []fieldView {
	var vals map[string]string
	if data != nil {
		vals = res.values(*data)
	}
	out := make([]fieldView, 0, len(res.fields))
	for _, f := range res.fields {
		fv := fieldView{Name: f.name, Label: f.label, Input: f.input}
		if !f.secret {
			fv.Value = vals[f.name]
		}
		out = append(out, fv)
	}
	return out
}

func (res *resource[T]) recordOf(rc *requestCtx) document.Record[T] {
	rec, _ := rc.record.(document.Record[T])
	return rec
}

// --- stages ---

func (res *resource[T]) loadAll(rc *requestCtx) (outcome, error) {
	recs, err := res.store.FindAll(rc.r.Context())
	if err != nil {
		return handled, fmt.Errorf("list %s: %w", res.name, err)
	}
	rows := make([]rowView, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, res.row(rec))
	}
	rc.locals["Rows"] = rows
	return proceed, nil
}

func (res *resource[T]) loadOne(rc *requestCtx) (outcome, error) {
	rec, err := res.store.FindByID(rc.r.Context(), rc.id)
	if err != nil {
		return handled, fmt.Errorf("find %s %s: %w", res.name, rc.id, err)
	}
	rc.record = rec
	return proceed, nil
}

// decodeInput validates the form. Violations are flashed and the client is sent
// back to the form, so nothing reaches the store.
func (res *resource[T]) decodeInput(rc *requestCtx) (outcome, error) {
	existing := res.recordOf(rc).Data
	data, err := res.decode(rc.r, existing)
	var violations validation.Violations
	if errors.As(err, &violations) {
		return res.backToForm(rc, violations.Messages()...)
	}
	if err != nil {
		return handled, err
	}
	rc.input = data
	return proceed, nil
}

// backToForm flashes messages as one error entry and redirects to new or edit.
func (res *resource[T]) backToForm(rc *requestCtx, messages ...string) (outcome, error) {
	if err := rc.s.sessions.AddFlash(rc.w, rc.r, "error", messages...); err != nil {
		return handled, err
	}
	target := res.base() + "/new"
	if rc.id != "" {
		target = res.base() + "/" + rc.id + "/edit"
	}
	http.Redirect(rc.w, rc.r, target, http.StatusSeeOther)
	return handled, nil
}

func (res *resource[T]) insert(rc *requestCtx) (outcome, error) {
	data := rc.input.(T)
	rec, err := res.store.Insert(rc.r.Context(), data)
	if errors.Is(err, document.ErrConstraint) {
		return res.backToForm(rc, res.label+" already exists.")
	}
	if err != nil {
		return handled, fmt.Errorf("create %s: %w", res.name, err)
	}
	if res.afterCreate != nil {
		res.afterCreate(rc.r.Context(), rec)
	}
	if err := rc.s.sessions.AddFlash(rc.w, rc.r, "success", fmt.Sprintf("%s %s created successfully!", res.label, res.title(rec.Data))); err != nil {
		return handled, err
	}
	rc.redirectTo = res.base()
	return proceed, nil
}

func (res *resource[T]) update(rc *requestCtx) (outcome, error) {
	data := rc.input.(T)
	rec, err := res.store.UpdateByID(rc.r.Context(), rc.id, data)
	if errors.Is(err, document.ErrConstraint) {
		return res.backToForm(rc, res.label+" already exists.")
	}
	if err != nil {
		return handled, fmt.Errorf("update %s %s: %w", res.name, rc.id, err)
	}
	if err := rc.s.sessions.AddFlash(rc.w, rc.r, "success", fmt.Sprintf("%s %s updated successfully!", res.label, res.title(rec.Data))); err != nil {
		return handled, err
	}
	rc.redirectTo = res.base()
	rc.withID = true
	return proceed, nil
}

// remove deletes the record. An absent record counts as deleted.
func (res *resource[T]) remove(rc *requestCtx) (outcome, error) {
	err := res.store.DeleteByID(rc.r.Context(), rc.id)
	if err != nil && !errors.Is(err, document.ErrNotFound) {
		return handled, fmt.Errorf("delete %s %s: %w", res.name, rc.id, err)
	}
	if err := rc.s.sessions.AddFlash(rc.w, rc.r, "success", res.label+" deleted successfully!"); err != nil {
		return handled, err
	}
	rc.redirectTo = res.base()
	return proceed, nil
}

// --- views ---

func (res *resource[T]) indexView(rc *requestCtx) (outcome, error) {
	rc.locals["Title"] = res.label + "s"
	rc.locals["Resource"] = res.view()
	rc.s.render(rc.w, rc.r, http.StatusOK, "index", rc.locals)
	return handled, nil
}

func (res *resource[T]) showView(rc *requestCtx) (outcome, error) {
	row := res.row(res.recordOf(rc))
	rc.locals["Title"] = row.Title
	rc.locals["Resource"] = res.view()
	rc.locals["Row"] = row
	rc.s.render(rc.w, rc.r, http.StatusOK, "show", rc.locals)
	return handled, nil
}

func (res *resource[T]) newView(rc *requestCtx) (outcome, error) {
	rc.locals["Title"] = "New " + res.label
	rc.locals["Resource"] = res.view()
	rc.locals["Fields"] = res.formFields(nil)
	rc.locals["Action"] = res.base() + "/create"
	rc.locals["Method"] = http.MethodPost
	rc.s.render(rc.w, rc.r, http.StatusOK, "form", rc.locals)
	return handled, nil
}

func (res *resource[T]) editView(rc *requestCtx) (outcome, error) {
	rec := res.recordOf(rc)
	rc.locals["Title"] = "Edit " + res.title(rec.Data)
	rc.locals["Resource"] = res.view()
	rc.locals["Fields"] = res.formFields(&rec.Data)
	rc.locals["Action"] = res.base() + "/" + rec.ID + "/update"
	rc.locals["Method"] = http.MethodPut
	rc.s.render(rc.w, rc.r, http.StatusOK, "form", rc.locals)
	return handled, nil
}

// routes is the declarative table for this resource.
func (res *resource[T]) routes(s *Server) []route {
	b := res.base()
	return []route{
		{http.MethodGet, b, s.pipeline(res.loadAll, res.indexView)},
		{http.MethodGet, b + "/new", s.pipeline(res.newView)},
		{http.MethodPost, b + "/create", s.pipeline(res.decodeInput, res.insert, redirectView)},
		{http.MethodGet, b + "/{id}", s.pipeline(res.loadOne, res.showView)},
		{http.MethodGet, b + "/{id}/edit", s.pipeline(res.loadOne, res.editView)},
		{http.MethodPut, b + "/{id}/update", s.pipeline(res.loadOne, res.decodeInput, res.update, redirectView)},
		{http.MethodDelete, b + "/{id}/delete", s.pipeline(res.remove, redirectView)},
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
