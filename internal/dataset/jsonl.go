package dataset

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// JSONLDataset is a corpus stored as one JSON item per line, the flattened
// export format of the VQA-v2 / OK-VQA annotation files.
type JSONLDataset struct {
	name  string
	items []Item
}

// OpenJSONL loads the whole corpus eagerly; annotation exports are small
// relative to the images they reference, which stay behind ImageRef.
func OpenJSONL(path string) (*JSONLDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("open dataset", errors.Wrapf(err, "open %s", path))
	}
	defer f.Close()

	var items []Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, apperrors.NewInvalidInputError("malformed dataset item",
				errors.Wrapf(err, "%s line %d", path, line))
		}
		if item.ImageRef == "" || strings.TrimSpace(item.Question) == "" {
			return nil, apperrors.NewInvalidInputError("dataset item missing image_ref or question",
				errors.Errorf("%s line %d", path, line))
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewInvalidInputError("read dataset", errors.Wrapf(err, "scan %s", path))
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &JSONLDataset{name: name, items: items}, nil
}

func (d *JSONLDataset) Name() string { return d.name }

func (d *JSONLDataset) Len() int { return len(d.items) }

func (d *JSONLDataset) Item(i int) (Item, error) {
	if err := checkIndex(i, len(d.items)); err != nil {
		return Item{}, err
	}
	return d.items[i], nil
}
