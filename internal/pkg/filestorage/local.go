package filestorage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/google/uuid"
)

// DownloadRoute is the public prefix serving signed downloads
const DownloadRoute = "/files/"

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath   string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
// baseURL is the public origin used in signed download links.
func NewLocalStorage(basePath, baseURL, signingKey string) (*LocalStorage, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("storage signing key is required")
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath:   basePath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(signingKey),
		now:        time.Now,
	}, nil
}

// Save writes the upload under subPath using a random file name
func (ls *LocalStorage) Save(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("no file provided")
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := path.Join(subPath, uuid.NewString()+strings.ToLower(filepath.Ext(fileHeader.Filename)))
	dstPath, err := ls.FullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o750); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Debug().Str("filename", fileHeader.Filename).Str("key", key).Msg("File saved")
	return key, nil
}

// Delete removes the blob for key. Deleting a missing blob succeeds.
func (ls *LocalStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	fullPath, err := ls.FullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("key", key).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("key", key).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// FullPath maps key to a path inside the storage root
func (ls *LocalStorage) FullPath(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// SignedURL returns a download link for key valid for ttl
func (ls *LocalStorage) SignedURL(key string, ttl time.Duration) (string, time.Time, error) {
	if _, err := ls.FullPath(key); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := ls.now().Add(ttl).Truncate(time.Second)
	expires := expiresAt.Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", ls.sign(key, expires))

	return ls.baseURL + DownloadRoute + key + "?" + q.Encode(), expiresAt, nil
}

// Verify checks that signature matches key and expires and that the link is still live
func (ls *LocalStorage) Verify(key string, expires int64, signature string) error {
	if _, err := ls.FullPath(key); err != nil {
		return err
	}
	if !hmac.Equal([]byte(ls.sign(key, expires)), []byte(signature)) {
		return ErrInvalidSignature
	}
	if ls.now().Unix() > expires {
		return ErrLinkExpired
	}
	return nil
}

func (ls *LocalStorage) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, ls.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
