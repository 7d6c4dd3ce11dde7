package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/models"
	"github.com/Wikid82/pokedex/backend/internal/util"
)

var (
	ErrPokemonNotFound  = errors.New("pokemon not found")
	ErrDuplicatePokemon = errors.New("a pokemon with this name already exists")
)

const (
	// PageSize is the number of records returned per page.
	PageSize = 20
	// SearchLimit caps the number of search results.
	SearchLimit = 50
)

type PokemonService struct {
	db        *gorm.DB
	images    ImageFetcher
	assetsDir string
}

func NewPokemonService(db *gorm.DB, images ImageFetcher, assetsDir string) *PokemonService {
	return &PokemonService{db: db, images: images, assetsDir: assetsDir}
}

// List returns every record ordered by id.
func (s *PokemonService) List() ([]models.Pokemon, error) {
	var list []models.Pokemon
	if err := s.db.Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListPage returns up to PageSize records after skipping page*PageSize.
// Negative pages are treated as the first page.
func (s *PokemonService) ListPage(page int) ([]models.Pokemon, error) {
	if page < 0 {
		page = 0
	}
	var list []models.Pokemon
	if err := s.db.Order("id asc").Offset(page * PageSize).Limit(PageSize).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID retrieves a record by id
func (s *PokemonService) GetByID(id uint) (*models.Pokemon, error) {
	var p models.Pokemon
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetByEnglishName matches the stored english name exactly, case included.
func (s *PokemonService) GetByEnglishName(name string) (*models.Pokemon, error) {
	var p models.Pokemon
	if err := s.db.Where("name_english = ?", name).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetByExactName matches the english or french name case-insensitively.
func (s *PokemonService) GetByExactName(name string) (*models.Pokemon, error) {
	key := util.NameKey(name)
	if key == "" {
		return nil, invalid("name", "must not be empty")
	}
	var p models.Pokemon
	if err := s.db.Where("english_key = ? OR french_key = ?", key, key).Order("id asc").First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Search returns up to SearchLimit records whose folded english or french name
// contains the folded query. An empty query returns no records without querying.
func (s *PokemonService) Search(query string) ([]models.Pokemon, error) {
	folded := util.Fold(strings.TrimSpace(query))
	if folded == "" {
		return []models.Pokemon{}, nil
	}
	pattern := "%" + escapeLike(folded) + "%"

	list := []models.Pokemon{}
	err := s.db.
		Where(`english_fold LIKE ? ESCAPE '\' OR french_fold LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("id asc").
		Limit(SearchLimit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Purge deletes every record and returns how many were removed.
func (s *PokemonService) Purge() (int64, error) {
	res := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Pokemon{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Create downloads the image, then assigns the next id, inserts the record and
// stores the image as <assetsDir>/<id><ext> in one transaction. assetsURL is the
// externally reachable URL of the assets directory.
func (s *PokemonService) Create(ctx context.Context, in *CreatePokemonInput, assetsURL string) (*models.Pokemon, error) {
	// Cheap rejection before the download; the unique indexes decide under races.
	if err := s.ensureNameAvailable(s.db.WithContext(ctx), in.Name, 0); err != nil {
		return nil, err
	}

	img, err := s.images.Fetch(ctx, in.ImageURL)
	if err != nil {
		return nil, err
	}
	ext := ImageExtension(img.ContentType, img.SourceURL)

	p := models.Pokemon{
		Name: in.Name,
		Type: in.Type,
		Base: in.Base,
	}
	var written string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureNameAvailable(tx, in.Name, 0); err != nil {
			return err
		}

		var maxID uint
		if err := tx.Model(&models.Pokemon{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("next id: %w", err)
		}
		p.ID = maxID + 1
		filename := strconv.FormatUint(uint64(p.ID), 10) + ext
		p.Image = strings.TrimRight(assetsURL, "/") + "/" + filename

		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePokemon
			}
			return fmt.Errorf("insert pokemon: %w", err)
		}

		// A reused id may still have the previous owner's image under another extension.
		if err := s.removeAssets(p.ID); err != nil {
			return err
		}
		dest := filepath.Join(s.assetsDir, filename)
		if err := os.WriteFile(dest, img.Data, 0o644); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		written = dest
		return nil
	})
	if err != nil {
		if written != "" {
			_ = os.Remove(written)
		}
		return nil, err
	}
	return &p, nil
}

// Update finds a record by exact english name and replaces the fields the patch
// provides. The id never changes.
func (s *PokemonService) Update(name string, patch *PokemonPatch) (*models.Pokemon, error) {
	var p models.Pokemon
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name_english = ?", name).First(&p).Error; err != nil {
			return notFound(err)
		}
		if patch.Name != nil {
			if err := s.ensureNameAvailable(tx, *patch.Name, p.ID); err != nil {
				return err
			}
			p.Name = *patch.Name
		}
		if patch.Type != nil {
			p.Type = patch.Type
		}
		if patch.Base != nil {
			p.Base = patch.Base
		}
		if patch.Image != nil {
			p.Image = *patch.Image
		}
		if err := tx.Save(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePokemon
			}
			return fmt.Errorf("save pokemon: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the record with the exact english name and returns it.
func (s *PokemonService) Delete(name string) (*models.Pokemon, error) {
	var p models.Pokemon
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name_english = ?", name).First(&p).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&models.Pokemon{}, p.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ensureNameAvailable fails with ErrDuplicatePokemon when another record (not
// excludeID) already uses the english or the french name, ignoring case.
func (s *PokemonService) ensureNameAvailable(tx *gorm.DB, name models.PokemonName, excludeID uint) error {
	q := tx.Model(&models.Pokemon{}).
		Where("english_key = ? OR french_key = ?", util.NameKey(name.English), util.NameKey(name.French))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate name: %w", err)
	}
	if count > 0 {
		return ErrDuplicatePokemon
	}
	return nil
}

// removeAssets deletes every stored image named <id>.<ext>.
func (s *PokemonService) removeAssets(id uint) error {
	entries, err := os.ReadDir(s.assetsDir)
	if err != nil {
		return fmt.Errorf("read assets dir: %w", err)
	}
	stem := strconv.FormatUint(uint64(id), 10)
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.TrimSuffix(name, filepath.Ext(name)) != stem {
			continue
		}
		if err := os.Remove(filepath.Join(s.assetsDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale image: %w", err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPokemonNotFound
	}
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
