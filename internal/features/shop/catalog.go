package shop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"serotonyl.ru/habits-bot/internal/common"
)

// CatalogEntry — позиция каталога в YAML-файле и в команде /addreward.
type CatalogEntry struct {
	Name        string     `yaml:"name" validate:"required,max=64"`
	Description string     `yaml:"description" validate:"max=512"`
	RewardType  RewardType `yaml:"reward_type" validate:"required,max=32"`
	PriceStars  int64      `yaml:"price_stars" validate:"min=0"`
}

type catalogFile struct {
	Rewards []CatalogEntry `yaml:"rewards" validate:"dive"`
}

var validate = validator.New()

// Validate проверяет одну позицию каталога.
func (e CatalogEntry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%q: %v: %w", e.Name, err, common.ErrInvalidReward)
	}
	return nil
}

// ParseCatalog разбирает YAML каталога и проверяет все позиции.
//
//	rewards:
//	  - name: Заморозка
//	    description: Серии не сгорят сегодня
//	    reward_type: freeze
//	    price_stars: 30
func ParseCatalog(data []byte) ([]CatalogEntry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	seen := make(map[string]bool, len(file.Rewards))
	for _, e := range file.Rewards {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%q повторяется: %w", e.Name, common.ErrInvalidReward)
		}
		seen[e.Name] = true
	}
	return file.Rewards, nil
}

// LoadCatalog читает каталог из файла. Отсутствующий файл — пустой каталог.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", path, err)
	}
	return ParseCatalog(data)
}
