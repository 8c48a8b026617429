package seedfile

import (
	"fmt"

	"github.com/mgaultier/marks/internal/domain"
)

// Mapper converts seed entries into validated bookmark inputs
type Mapper struct{}

// NewMapper creates a new seed mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapEntries validates and normalizes every entry. Invalid entries are
// skipped rather than aborting the whole import; a file with no valid
// entry is an error.
func (m *Mapper) MapEntries(config Config) ([]domain.Input, []Entry, error) {
	inputs := make([]domain.Input, 0, len(config.Bookmarks))
	var skipped []Entry

	for _, entry := range config.Bookmarks {
		input, fieldErrs := domain.Validate(entry.Title, entry.URL)
		if fieldErrs != nil {
			skipped = append(skipped, entry)
			continue
		}
		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return nil, skipped, fmt.Errorf("no valid bookmarks found in seed file")
	}

	return inputs, skipped, nil
}
