package chainstate

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

const (
	normalDirName   = "chainstate"
	snapshotDirName = "chainstate_snapshot"
	toDeleteDirName = "chainstate_todelete"
	invalidDirName  = "chainstate_snapshot_INVALID"

	// baseBlockHashFileName holds the base block hash of a snapshot
	// chainstate. A snapshot directory without it was never completely
	// loaded.
	baseBlockHashFileName = "base_blockhash"

	// validatedFileName marks a snapshot chainstate that passed
	// background validation and is about to replace the normal one.
	validatedFileName = "validated"
)

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}

// writeFileAtomically writes data to a temporary file and renames it into
// place, so path holds either nothing or all of data.
func writeFileAtomically(path string, data []byte) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = file.Write(data)
	if err != nil {
		file.Close()
		return errors.WithStack(err)
	}
	err = file.Sync()
	if err != nil {
		file.Close()
		return errors.WithStack(err)
	}
	err = file.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tempPath, path))
}

func writeBaseBlockHash(dir string, hash *chainhash.Hash) error {
	return writeFileAtomically(filepath.Join(dir, baseBlockHashFileName), hash[:])
}

// readBaseBlockHash returns nil if dir has no base block hash file.
func readBaseBlockHash(dir string) (*chainhash.Hash, error) {
	serialized, err := os.ReadFile(filepath.Join(dir, baseBlockHashFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	hash, err := chainhash.NewHash(serialized)
	if err != nil {
		return nil, errors.Wrapf(err, "the base block hash file in %s is corrupted", dir)
	}
	return hash, nil
}

func writeValidatedMarker(dir string) error {
	return writeFileAtomically(filepath.Join(dir, validatedFileName), []byte{1})
}

func hasValidatedMarker(dir string) (bool, error) {
	return pathExists(filepath.Join(dir, validatedFileName))
}

func removeValidatedMarker(dir string) error {
	err := os.Remove(filepath.Join(dir, validatedFileName))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
