package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/okian/factboard/internal/domain/model"
)

// LoadGroundTruth reads a JSON array of {id, label} from path.
// A missing file returns an empty map and an error wrapping ErrGroundTruthNotFound,
// so callers may continue with nothing to score against.
func LoadGroundTruth(path string) (GroundTruth, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return GroundTruth{}, fmt.Errorf("%w: %s", ErrGroundTruthNotFound, path)
		}
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer f.Close()

	return ParseGroundTruth(f)
}

// ParseGroundTruth decodes a JSON array of {id, label}. Later duplicates win.
func ParseGroundTruth(r io.Reader) (GroundTruth, error) {
	var rows []model.Label
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedGroundTruth, err)
	}
	gt := make(GroundTruth, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("%w: row %d has no id", ErrMalformedGroundTruth, i)
		}
		gt[string(row.ID)] = string(row.Label)
	}
	return gt, nil
}
