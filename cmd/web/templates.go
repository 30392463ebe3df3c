package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/tatugym/internal/contexthelpers"
	"github.com/myrjola/tatugym/internal/i18n"
)

type BaseTemplateData struct {
	Authenticated bool
	Language      i18n.Language
	Languages     []i18n.Language
	CurrentPath   string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	ctx := r.Context()
	return BaseTemplateData{
		Authenticated: contexthelpers.IsAuthenticated(ctx),
		Language:      contexthelpers.Language(ctx),
		Languages:     i18n.SupportedLanguages(),
		CurrentPath:   contexthelpers.CurrentPath(ctx),
	}
}

// uiDir returns the directory of the ui/<name> assets. An explicit path wins. Otherwise the directories from the
// working directory up to the root are searched so that tests running inside cmd/web find the module root.
func uiDir(explicit, name string) (string, error) {
	dir := explicit
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		for {
			candidate := filepath.Join(wd, "ui", name)
			if stat, statErr := os.Stat(candidate); statErr == nil && stat.IsDir() {
				dir = candidate
				break
			}
			parent := filepath.Dir(wd)
			if parent == wd {
				return "", fmt.Errorf("ui/%s not found above the working directory: %w", name, os.ErrNotExist)
			}
			wd = parent
		}
	}
	stat, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}
	return dir, nil
}
