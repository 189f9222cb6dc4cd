package web

import (
	"io/fs"
	"testing"
)

func TestEmbeddedTemplatesExist(t *testing.T) {
	templatesFS := GetTemplatesFS()

	requiredFiles := []string{
		"layout.html",
		"home.html",
		"login.html",
		"register.html",
		"races.html",
		"predict.html",
		"ranking.html",
		"profile.html",
		"admin.html",
	}

	for _, file := range requiredFiles {
		_, err := fs.Stat(templatesFS, file)
		if err != nil {
			t.Errorf("required template %q not found: %v", file, err)
		}
	}
}

func TestEmbeddedStaticFilesExist(t *testing.T) {
	staticFS := GetStaticFS()

	requiredFiles := []string{
		"css/app.css",
		"js/app.js",
	}

	for _, file := range requiredFiles {
		_, err := fs.Stat(staticFS, file)
		if err != nil {
			t.Errorf("required static file %q not found: %v", file, err)
		}
	}
}

func TestTemplatesReadable(t *testing.T) {
	templatesFS := GetTemplatesFS()

	content, err := fs.ReadFile(templatesFS, "layout.html")
	if err != nil {
		t.Fatalf("failed to read layout.html: %v", err)
	}
	if len(content) == 0 {
		t.Error("layout.html is empty")
	}
}

func TestStaticFilesReadable(t *testing.T) {
	staticFS := GetStaticFS()

	content, err := fs.ReadFile(staticFS, "js/app.js")
	if err != nil {
		t.Fatalf("failed to read js/app.js: %v", err)
	}
	if len(content) == 0 {
		t.Error("js/app.js is empty")
	}
}
