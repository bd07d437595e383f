// Package state persists the authored project document to two named save
// slots under the project meta dir.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SlotNames are the two available save slots.
var SlotNames = []string{"a", "b"}

// Document is the serialized project snapshot a slot holds. The plan file is
// the authoring source of truth; slots capture working copies.
type Document struct {
	SavedAt time.Time       `json:"saved_at"`
	Title   string          `json:"title,omitempty"`
	Plan    json.RawMessage `json:"plan"`
}

// SlotInfo describes one slot for listings.
type SlotInfo struct {
	Name    string    `json:"name"`
	Exists  bool      `json:"exists"`
	SavedAt time.Time `json:"saved_at,omitempty"`
	Title   string    `json:"title,omitempty"`
}

// Store reads and writes slot documents under Dir.
type Store struct {
	Dir string
}

// ValidSlot reports whether name is one of the two slots.
func ValidSlot(name string) bool {
	for _, s := range SlotNames {
		if s == name {
			return true
		}
	}
	return false
}

func (s *Store) slotPath(name string) string {
	return filepath.Join(s.Dir, "slot_"+name+".json")
}

// Save writes the document atomically to the named slot.
func (s *Store) Save(name string, doc Document) error {
	if !ValidSlot(name) {
		return fmt.Errorf("unknown slot %q (want one of %v)", name, SlotNames)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("prepare slot dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal slot %s: %w", name, err)
	}

	path := s.slotPath(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit slot %s: %w", name, err)
	}
	return nil
}

// Load reads the named slot. A missing or corrupt slot returns an empty
// document without error; the caller decides whether that is fatal.
func (s *Store) Load(name string) (Document, error) {
	if !ValidSlot(name) {
		return Document{}, fmt.Errorf("unknown slot %q (want one of %v)", name, SlotNames)
	}
	data, err := os.ReadFile(s.slotPath(name))
	if err != nil {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, nil
	}
	return doc, nil
}

// List describes every slot in stable order.
func (s *Store) List() []SlotInfo {
	infos := make([]SlotInfo, 0, len(SlotNames))
	for _, name := range SlotNames {
		info := SlotInfo{Name: name}
		if data, err := os.ReadFile(s.slotPath(name)); err == nil {
			var doc Document
			if json.Unmarshal(data, &doc) == nil {
				info.Exists = true
				info.SavedAt = doc.SavedAt
				info.Title = doc.Title
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
