package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/model"
)

// ReadSeedFile decodes a JSON array of trains, in the same format as the
// trains document, for importing into the catalog.
func ReadSeedFile(path string) ([]model.Train, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository: reading seed file %s: %w", path, err)
	}

	var trains []model.Train
	if err := json.Unmarshal(data, &trains); err != nil {
		return nil, apperror.StoreCorrupt("seed "+path, err)
	}
	return trains, nil
}
