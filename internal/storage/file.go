package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// loadJSON reads the file at path into v. A missing file is treated as
// empty state and materialized on disk. A corrupt file is preserved next
// to the fresh empty one for forensic recovery; its contents are lost to
// the running process but not to the operator.
func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return saveJSON(path, v)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		corruptPath := path + ".corrupt"
		log.Printf("[Storage File:%s] CORRUPT state file, starting empty. Original preserved at %s. Parse error: %v", path, corruptPath, err)
		if renameErr := os.Rename(path, corruptPath); renameErr != nil {
			log.Printf("[Storage File:%s] Failed to preserve corrupt file: %v", path, renameErr)
		}
		return saveJSON(path, v)
	}
	return nil
}

// saveJSON writes v to path atomically: the payload goes to a temp file
// in the same directory which is then renamed over the target, so a
// crash mid-write never leaves truncated state behind.
func saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
