package bingo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

const jsPrefix = "window.cards ="

// ReadCatalog decodes a catalog in either plain JSON form or the browser
// `window.cards = {...};` form. Cards failing validation are skipped.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	data = bytes.TrimSpace(data)
	if rest, ok := bytes.CutPrefix(data, []byte(jsPrefix)); ok {
		data = bytes.TrimSuffix(bytes.TrimSpace(rest), []byte(";"))
	}

	raw := map[string]Card{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	valid := make(map[string]Card, len(raw))
	for code, card := range raw {
		if card.Code == "" {
			card.Code = code
		}
		if card.Code != code {
			log.Warnf("catalog: card key %s carries code %s, skipped", code, card.Code)
			continue
		}
		if err := card.Validate(); err != nil {
			log.Warnf("catalog: %v", err)
			continue
		}
		valid[code] = card
	}
	return NewCatalog(valid), nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

type CatalogFormat string

const (
	FormatJSON CatalogFormat = "json"
	FormatJS   CatalogFormat = "js"
)

// WriteCatalog encodes cards indented, optionally wrapped for a browser script tag.
func WriteCatalog(w io.Writer, cards map[string]Card, format CatalogFormat) error {
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	switch format {
	case FormatJS:
		_, err = fmt.Fprintf(w, "%s %s;\n", jsPrefix, data)
	case FormatJSON, "":
		_, err = fmt.Fprintf(w, "%s\n", data)
	default:
		return fmt.Errorf("unknown catalog format %q", format)
	}
	return err
}
