package models

// Field tracks whether a value was supplied at all. The zero value is "unset";
// Clear marks an explicit null.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

func Set[T any](v T) Field[T] { return Field[T]{value: v, set: true} }

func Clear[T any]() Field[T] { return Field[T]{set: true, null: true} }

func (f Field[T]) IsSet() bool { return f.set }

func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the supplied value; ok is false for unset and cleared fields.
func (f Field[T]) Get() (v T, ok bool) {
	if !f.set || f.null {
		return v, false
	}
	return f.value, true
}

// MediaPatch carries only the fields a caller actually supplied. Absent fields
// keep their stored value.
type MediaPatch struct {
	Title    Field[string]
	Type     Field[MediaType]
	Status   Field[MediaStatus]
	Rating   Field[int]
	Review   Field[string]
	ImageURL Field[string]
}

// Columns maps every present field to its column. Cleared fields map to nil.
func (p MediaPatch) Columns() map[string]any {
	cols := make(map[string]any, 6)
	addColumn(cols, "title", p.Title)
	addColumn(cols, "type", p.Type)
	addColumn(cols, "status", p.Status)
	addColumn(cols, "rating", p.Rating)
	addColumn(cols, "review", p.Review)
	addColumn(cols, "image_url", p.ImageURL)
	return cols
}

func (p MediaPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Apply merges the patch into m in place, using the same rules as Columns.
func (p MediaPatch) Apply(m *Media) {
	if v, ok := p.Title.Get(); ok {
		m.Title = v
	}
	if v, ok := p.Type.Get(); ok {
		m.Type = v
	}
	if v, ok := p.Status.Get(); ok {
		m.Status = v
	}
	applyOptional(&m.Rating, p.Rating)
	applyOptional(&m.Review, p.Review)
	applyOptional(&m.ImageURL, p.ImageURL)
}

func addColumn[T any](cols map[string]any, name string, f Field[T]) {
	if !f.IsSet() {
		return
	}
	if f.IsNull() {
		cols[name] = nil
		return
	}
	cols[name] = f.value
}

func applyOptional[T any](dst **T, f Field[T]) {
	if !f.IsSet() {
		return
	}
	if f.IsNull() {
		*dst = nil
		return
	}
	v := f.value
	*dst = &v
}
