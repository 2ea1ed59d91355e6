package domain

import "fmt"

// DocType tags the entity kind carried by an envelope.
type DocType string

// DocType values for the persisted entity kinds.
const (
	DocTypeWorkCenter DocType = "work-center"
	DocTypeWorkOrder  DocType = "work-order"
)

// Entity is implemented by every type that can travel inside an envelope.
type Entity interface {
	WorkCenter | WorkOrder
	EntityID() string
}

// Envelope is the uniform {docId, docType, data} wrapper shared by persisted collections.
type Envelope[T Entity] struct {
	DocID   string  `json:"docId"`
	DocType DocType `json:"docType"`
	Data    T       `json:"data"`
}

// DocTypeFor returns the doc type constant for an entity kind.
func DocTypeFor[T Entity]() DocType {
	var zero T
	switch any(zero).(type) {
	case WorkCenter:
		return DocTypeWorkCenter
	default:
		return DocTypeWorkOrder
	}
}

// Wrap builds an envelope whose doc id mirrors the entity id.
func Wrap[T Entity](data T) Envelope[T] {
	return Envelope[T]{
		DocID:   data.EntityID(),
		DocType: DocTypeFor[T](),
		Data:    data,
	}
}

// WrapAll wraps every entity in order.
func WrapAll[T Entity](items []T) []Envelope[T] {
	out := make([]Envelope[T], 0, len(items))
	for _, item := range items {
		out = append(out, Wrap(item))
	}
	return out
}

// Unwrap returns the payloads of envs in order.
func Unwrap[T Entity](envs []Envelope[T]) []T {
	out := make([]T, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Data)
	}
	return out
}

// Validate checks the doc type and that the doc id matches the payload id.
func (e Envelope[T]) Validate() error {
	if want := DocTypeFor[T](); e.DocType != want {
		return fmt.Errorf("%w: got %q, want %q", ErrInvalidDocType, e.DocType, want)
	}
	if e.DocID == "" || e.DocID != e.Data.EntityID() {
		return fmt.Errorf("%w: doc %q, data %q", ErrEnvelopeMismatch, e.DocID, e.Data.EntityID())
	}
	return nil
}
