// Package backup exports consistent snapshots of the playtime database,
// optionally encrypted with an age passphrase so exports can be parked on
// untrusted storage.
package backup

import (
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// Database is the slice of the store that backup needs.
type Database interface {
	// BackupTo writes a consistent snapshot of the database to destPath.
	BackupTo(destPath string) error
}

// Export snapshots the database to destPath. The snapshot is taken with
// VACUUM INTO, so it is consistent even while the database is open.
func Export(db Database, destPath string) error {
	// VACUUM INTO refuses to overwrite an existing file.
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("export destination already exists: %s", destPath)
	}
	if err := db.BackupTo(destPath); err != nil {
		return fmt.Errorf("exporting database: %w", err)
	}
	return nil
}

// ExportEncrypted snapshots the database and writes an age
// passphrase-encrypted copy to destPath, leaving no plaintext snapshot
// behind.
func ExportEncrypted(db Database, destPath, passphrase string) error {
	tmp, err := os.CreateTemp("", "playtime-export-*.db")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath) // VACUUM INTO needs the path to be free
	defer os.Remove(tmpPath)

	if err := db.BackupTo(tmpPath); err != nil {
		return fmt.Errorf("exporting database: %w", err)
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted export: %w", err)
	}
	defer dst.Close()

	if err := Encrypt(src, dst, passphrase); err != nil {
		os.Remove(destPath)
		return err
	}
	return nil
}

// Encrypt writes an age passphrase-encrypted copy of r to w.
func Encrypt(r io.Reader, w io.Writer, passphrase string) error {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted data: %w", err)
	}
	return nil
}

// Decrypt reverses Encrypt: it reads age ciphertext from r and writes the
// plaintext to w. Used by `playtime backup decrypt` to recover an export.
func Decrypt(r io.Reader, w io.Writer, passphrase string) error {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("opening encrypted data: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
