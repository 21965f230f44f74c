package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// currentDatabaseVersion is the version of the data directory layout: the
// block index, the chainstate directories and their markers.
const currentDatabaseVersion = 1

func checkDatabaseVersion(dataDir string) (doesVersionFileExist bool, err error) {
	dbVersionFileName := versionFilePath(dataDir)
	versionBytes, err := os.ReadFile(dbVersionFileName)
	if err != nil {
		if os.IsNotExist(err) { // If version file doesn't exist, we assume that the data directory is new
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	databaseVersion, err := strconv.Atoi(strings.TrimSpace(string(versionBytes)))
	if err != nil {
		return true, errors.Wrapf(err, "could not parse %s", dbVersionFileName)
	}

	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d",
			databaseVersion, currentDatabaseVersion)
	}

	return true, nil
}

func createDatabaseVersionFile(dataDir string) error {
	versionString := strconv.Itoa(currentDatabaseVersion)
	err := os.WriteFile(versionFilePath(dataDir), []byte(versionString), 0600)
	return errors.WithStack(err)
}

func versionFilePath(dataDir string) string {
	return filepath.Join(dataDir, "version")
}
