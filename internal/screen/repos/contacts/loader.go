package contacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	logpkg "github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// contactRecord is the structured-file shape of one contact:
//
//	contacts:
//	  - name: Alice
//	    numbers: ["555-123-4567", "+1 555 0100"]
//	    number: "555-0199"   # single-number shorthand
type contactRecord struct {
	Name    string   `koanf:"name"`
	Number  string   `koanf:"number"`
	Numbers []string `koanf:"numbers"`
}

// LoadDirectory walks dir and loads every supported contact file
// (YAML, JSON, TOML, or plain .txt lists). Unsupported extensions are skipped.
// Returns an error if any supported file fails to parse.
func LoadDirectory(dir string, logger logpkg.Logger) ([]domain.Contact, error) {
	var out []domain.Contact
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		cs, err := loadFile(path, logger)
		if err != nil {
			return fmt.Errorf("error parsing contact file %s: %w", path, err)
		}
		out = append(out, cs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadFile(path string, logger logpkg.Logger) ([]domain.Contact, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	case ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParsePlainList(f, path, logger)
	default:
		logger.Debug(map[string]any{"path": path}, "skip_unsupported_contact_file")
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	var recs []contactRecord
	if err := k.Unmarshal("contacts", &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(recs))
	for i, rec := range recs {
		numbers := rec.Numbers
		if rec.Number != "" {
			numbers = append([]string{rec.Number}, numbers...)
		}
		c, err := domain.NewContact(rec.Name, numbers, path)
		if err != nil {
			logger.Warn(map[string]any{"path": path, "index": i, "error": err}, "skipping contact")
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
