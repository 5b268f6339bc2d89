package types

// Candidate is a replacement question proposed for a duplicate item.
type Candidate struct {
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"min=2,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
}

// Patch converts the candidate into an item patch.
func (c Candidate) Patch() ItemPatch {
	return ItemPatch{
		Text:         StringPtr(c.Text),
		Options:      StringsPtr(c.Options),
		CorrectIndex: IntPtr(c.CorrectIndex),
	}
}

// GenerationRequest carries the context a generator needs to write candidates
// for one item.
type GenerationRequest struct {
	ItemID        string   `json:"item_id"`
	ScopeID       string   `json:"scope_id"`
	LessonID      string   `json:"lesson_id,omitempty"`
	LessonOrdinal int      `json:"lesson_ordinal,omitempty"`
	LessonTitle   string   `json:"lesson_title,omitempty"`
	LessonBody    string   `json:"lesson_body,omitempty"`
	Language      string   `json:"language,omitempty"`
	Original      Item     `json:"original"`
	ExistingTexts []string `json:"existing_texts"`
	Count         int      `json:"count"`
	Seed          int64    `json:"seed"`
}
