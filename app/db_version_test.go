package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrepareDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data", "regtest")

	err := prepareDataDir(dataDir)
	if err != nil {
		t.Fatalf("prepareDataDir unexpectedly failed: %+v", err)
	}
	doesVersionFileExist, err := checkDatabaseVersion(dataDir)
	if err != nil {
		t.Fatalf("checkDatabaseVersion unexpectedly failed: %+v", err)
	}
	if !doesVersionFileExist {
		t.Fatalf("checkDatabaseVersion: the version file was not created")
	}

	// A second run finds the existing version file.
	err = prepareDataDir(dataDir)
	if err != nil {
		t.Fatalf("prepareDataDir unexpectedly failed: %+v", err)
	}

	err = os.WriteFile(versionFilePath(dataDir), []byte("2"), 0600)
	if err != nil {
		t.Fatalf("WriteFile unexpectedly failed: %s", err)
	}
	err = prepareDataDir(dataDir)
	if err == nil || !strings.Contains(err.Error(), "Invalid database version 2") {
		t.Fatalf("prepareDataDir: expected an invalid version error but got %v", err)
	}

	err = os.WriteFile(versionFilePath(dataDir), []byte("one"), 0600)
	if err != nil {
		t.Fatalf("WriteFile unexpectedly failed: %s", err)
	}
	_, err = checkDatabaseVersion(dataDir)
	if err == nil {
		t.Fatalf("checkDatabaseVersion: expected an error for a malformed version file")
	}
}
