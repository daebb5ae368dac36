package storage

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStorage is an in-process ObjectStorage. Its presigned links point at
// baseURL and are served by its ServeHTTP method, so a link can be resolved
// end to end when the storage is mounted on an HTTP server.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memObject
	failOn  map[string]error
	calls   map[string]int
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewMemoryStorage creates an empty store whose links are rooted at baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	return &MemoryStorage{
		objects: make(map[string]memObject),
		failOn:  make(map[string]error),
		calls:   make(map[string]int),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
}

// SetBaseURL changes the root of presigned links; useful when the serving
// address is only known after the store was created.
func (m *MemoryStorage) SetBaseURL(baseURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Put stores data under bucket/key.
func (m *MemoryStorage) Put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = memObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		modified:    m.now(),
	}
}

// PutAfter stores data once delay has elapsed.
func (m *MemoryStorage) PutAfter(delay time.Duration, bucket, key string, data []byte, contentType string) *time.Timer {
	return time.AfterFunc(delay, func() { m.Put(bucket, key, data, contentType) })
}

// Get returns a copy of the stored bytes.
func (m *MemoryStorage) Get(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// FailOn makes every subsequent call of op ("stat", "download", "upload",
// "presign") return err. A nil err clears the failure.
func (m *MemoryStorage) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, op)
		return
	}
	m.failOn[op] = err
}

// Calls returns how many times op was invoked.
func (m *MemoryStorage) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// TotalCalls returns the number of ObjectStorage calls of any kind.
func (m *MemoryStorage) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MemoryStorage) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.failOn[op]
}

func (m *MemoryStorage) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := m.enter("stat"); err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}, nil
}

func (m *MemoryStorage) DownloadObject(ctx context.Context, bucket, key, destPath string) error {
	if err := m.enter("download"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, ok := m.Get(bucket, key)
	if !ok {
		return ErrNotFound
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", destPath, err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("failed writing %s: %w", destPath, err)
	}
	return nil
}

func (m *MemoryStorage) UploadObject(ctx context.Context, bucket, key, srcPath, contentType string) error {
	if err := m.enter("upload"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed reading %s: %w", srcPath, err)
	}
	m.Put(bucket, key, data, contentType)
	return nil
}

func (m *MemoryStorage) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := m.enter("presign"); err != nil {
		return "", err
	}
	if expiry <= 0 {
		return "", fmt.Errorf("presign expiry must be positive")
	}
	expires := strconv.FormatInt(m.clock().Add(expiry).Unix(), 10)

	m.mu.RLock()
	base := m.baseURL
	m.mu.RUnlock()

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", m.sign(bucket, key, expires))
	return fmt.Sprintf("%s/%s/%s?%s", base, url.PathEscape(bucket), escapeKey(key), q.Encode()), nil
}

// ServeHTTP resolves links produced by PresignGetObject.
func (m *MemoryStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || bucket == "" || key == "" {
		http.Error(w, "bad object path", http.StatusBadRequest)
		return
	}

	expires := r.URL.Query().Get("expires")
	sig := r.URL.Query().Get("signature")
	if !hmac.Equal([]byte(sig), []byte(m.sign(bucket, key, expires))) {
		http.Error(w, "signature mismatch", http.StatusForbidden)
		return
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || m.clock().After(time.Unix(unix, 0)) {
		http.Error(w, "link expired", http.StatusForbidden)
		return
	}

	m.mu.RLock()
	obj, found := m.objects[objectID(bucket, key)]
	m.mu.RUnlock()
	if !found {
		http.Error(w, "no such key", http.StatusNotFound)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	_, _ = w.Write(obj.data)
}

// SetClock replaces the time source used for link expiry.
func (m *MemoryStorage) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStorage) clock() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

func (m *MemoryStorage) sign(bucket, key, expires string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(bucket + "\n" + key + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ ObjectStorage = (*MemoryStorage)(nil)

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
