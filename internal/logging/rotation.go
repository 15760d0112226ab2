package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const filePrefix = "koyr_"

// rotate removes the oldest koyr log files in dir so that at most keep
// remain. Files not written by koyr are never touched.
func rotate(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	type logEntry struct {
		path    string
		modTime time.Time
	}
	var logs []logEntry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		logs = append(logs, logEntry{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}
	if len(logs) <= keep {
		return nil
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].modTime.Before(logs[j].modTime) })
	for _, l := range logs[:len(logs)-keep] {
		_ = os.Remove(l.path)
	}
	return nil
}
