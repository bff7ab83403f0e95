package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeMinimalClassFile(t *testing.T, path, className string) {
	t.Helper()
	data := buildMinimalClassNamed(className)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestPathLoaderFindsClassInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeMinimalClassFile(t, filepath.Join(dir, "Hello.class"), "Hello")

	pl, err := NewPathLoader(dir)
	if err != nil {
		t.Fatalf("NewPathLoader: %v", err)
	}

	cm, err := pl.LoadClass("Hello")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if cm.ThisClass != "Hello" {
		t.Errorf("ThisClass: got %q, want %q", cm.ThisClass, "Hello")
	}
}

func TestPathLoaderFindsClassInZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "app.jar")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("Hello.class")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(buildMinimalClassNamed("Hello")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	pl, err := NewPathLoader(zipPath)
	if err != nil {
		t.Fatalf("NewPathLoader: %v", err)
	}
	defer pl.Close()

	cm, err := pl.LoadClass("Hello")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if cm.ThisClass != "Hello" {
		t.Errorf("ThisClass: got %q, want %q", cm.ThisClass, "Hello")
	}
}

func TestPathLoaderMissingClass(t *testing.T) {
	dir := t.TempDir()
	pl, err := NewPathLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pl.LoadClass("Nope"); err == nil {
		t.Fatal("expected ClassNotFoundError")
	}
}

func TestRuntimeLoaderFallsBackToSynthetic(t *testing.T) {
	rl := NewRuntimeLoader("")
	cm, err := rl.LoadClass("java/lang/Object")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if cm.ThisClass != "java/lang/Object" {
		t.Errorf("ThisClass: got %q", cm.ThisClass)
	}
	if cm.FindMethod("hashCode", "()I") == nil {
		t.Error("expected synthetic Object to declare hashCode")
	}
}

func TestCompositeLoaderTriesChildrenInOrder(t *testing.T) {
	dir := t.TempDir()
	writeMinimalClassFile(t, filepath.Join(dir, "App.class"), "App")
	pl, err := NewPathLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	rl := NewRuntimeLoader("")

	composite := NewCompositeLoader(rl, pl)

	if _, err := composite.LoadClass("App"); err != nil {
		t.Fatalf("LoadClass(App): %v", err)
	}
	if _, err := composite.LoadClass("java/lang/Object"); err != nil {
		t.Fatalf("LoadClass(java/lang/Object): %v", err)
	}
	if _, err := composite.LoadClass("Nonexistent"); err == nil {
		t.Fatal("expected ClassNotFoundError for class absent from every child")
	}
}
