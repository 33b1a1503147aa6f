package dataset

import (
	"fmt"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// Item is one evaluation unit: an image reference, a question and its
// ground-truth answers. Items are read-only to the pipeline; the image is
// resolved lazily through a storage.ImageFetcher using ImageRef.
type Item struct {
	QuestionID string   `json:"question_id"`
	ImageID    string   `json:"image_id"`
	ImageRef   string   `json:"image_ref"`
	Question   string   `json:"question"`
	References []string `json:"references"`
	// MultipleChoiceAnswer is the single consensus answer some corpora
	// (VQA-v2) carry alongside the per-annotator references.
	MultipleChoiceAnswer string `json:"multiple_choice_answer,omitempty"`
}

// AllReferences returns every ground-truth answer for the item, folding the
// consensus answer in when it is not already listed.
func (it Item) AllReferences() []string {
	refs := make([]string, 0, len(it.References)+1)
	refs = append(refs, it.References...)
	if it.MultipleChoiceAnswer != "" {
		for _, r := range refs {
			if r == it.MultipleChoiceAnswer {
				return refs
			}
		}
		refs = append(refs, it.MultipleChoiceAnswer)
	}
	return refs
}

// Dataset exposes indexed access to evaluation items.
type Dataset interface {
	Name() string
	Len() int
	Item(i int) (Item, error)
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return apperrors.NewInvalidInputError(fmt.Sprintf("dataset index %d out of range [0,%d)", i, n), nil)
	}
	return nil
}
