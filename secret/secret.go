// Package secret generates and manages the signing secrets consumed by the
// jwt codec: cryptographically secure HMAC keys, config-file secret
// injection, and a rotating key ring that publishes its keys as a JWK set.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	defaultPoolSize = 256
	maxPoolSize     = 4096
	charsetLen      = 64
	charsetMask     = 0x3F
)

var (
	ErrInvalidSize   = errors.New("secret: size must be positive")
	ErrInvalidLength = errors.New("secret: length must be positive")
	ErrReaderFailed  = errors.New("secret: entropy source read failed")
)

// charset uses URL-safe base64 characters for maximum compatibility
var charset = [charsetLen]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '_',
}

// Generator produces cryptographically secure signing secrets. Buffers are
// pooled so common operations avoid repeat allocations.
type Generator struct {
	reader io.Reader
	pool   *sync.Pool

	// Pre-allocated buffer for small operations to avoid pool overhead
	mu        sync.Mutex
	fastBuf   [64]byte
	fastInUse bool

	prefix string
}

// NewGenerator creates a generator with the given entropy source.
// If no reader is provided, crypto/rand.Reader is used (recommended).
func NewGenerator(readers ...io.Reader) *Generator {
	reader := rand.Reader
	if len(readers) > 0 && readers[0] != nil {
		reader = readers[0]
	}
	return &Generator{
		reader: reader,
		pool: &sync.Pool{
			New: func() any {
				buf := make([]byte, defaultPoolSize)
				return &buf
			},
		},
	}
}

// WithPrefix prepends a fixed prefix to generated secret strings.
func (g *Generator) WithPrefix(prefix string) *Generator {
	g.prefix = prefix
	return g
}

func (g *Generator) getBuffer(size int) ([]byte, bool) {
	if size <= len(g.fastBuf) {
		g.mu.Lock()
		if !g.fastInUse {
			g.fastInUse = true
			g.mu.Unlock()
			return g.fastBuf[:size], true
		}
		g.mu.Unlock()
	}
	if size > maxPoolSize {
		return make([]byte, size), false
	}
	ptr := g.pool.Get().(*[]byte)
	buf := *ptr
	if cap(buf) < size {
		buf = make([]byte, size)
		*ptr = buf
	}
	return buf[:size], false
}

func (g *Generator) putBuffer(buf []byte, isFast bool) {
	if isFast {
		g.mu.Lock()
		g.fastInUse = false
		g.mu.Unlock()
		return
	}
	if cap(buf) <= maxPoolSize {
		full := buf[:cap(buf)]
		g.pool.Put(&full)
	}
}

func (g *Generator) read(buf []byte) error {
	if _, err := io.ReadFull(g.reader, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrReaderFailed, err)
	}
	return nil
}

// Key returns size cryptographically random bytes.
func (g *Generator) Key(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	key := make([]byte, size)
	if err := g.read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// HMACKey returns a secret sized for the given HS digest: 32 bytes for
// HS256, 48 for HS384, 64 for HS512, matching the RFC 7518 minimums.
func (g *Generator) HMACKey(bits int) ([]byte, error) {
	switch bits {
	case 256, 384, 512:
		return g.Key(bits / 8)
	}
	return nil, fmt.Errorf("secret: no HMAC digest of %d bits", bits)
}

// String returns a random string of the given length over the URL-safe
// charset, with the configured prefix prepended.
func (g *Generator) String(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	buf, isFast := g.getBuffer(length)
	if err := g.read(buf); err != nil {
		g.putBuffer(buf, isFast)
		return "", err
	}
	for i := range buf {
		buf[i] = charset[buf[i]&charsetMask]
	}
	// copy out before releasing: the returned string must never alias
	// pooled memory
	out := g.prefix + string(buf)
	g.putBuffer(buf, isFast)
	return out, nil
}

// Base64 returns size random bytes encoded as unpadded URL-safe base64.
func (g *Generator) Base64(size int) (string, error) {
	key, err := g.Key(size)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// ReplaceInEnvFile writes a fresh secret of the given length under key in a
// dotenv-style file, creating the file or appending the key when absent.
func (g *Generator) ReplaceInEnvFile(filePath, key string, length int) error {
	value, err := g.String(length)
	if err != nil {
		return err
	}
	return replaceInEnvFile(filePath, key, value)
}

// ReplaceInJSONFile writes a fresh secret under a top-level key in a JSON file.
func (g *Generator) ReplaceInJSONFile(filePath, key string, length int) error {
	value, err := g.String(length)
	if err != nil {
		return err
	}
	return replaceInJSONFile(filePath, key, value)
}

// ReplaceInYAMLFile writes a fresh secret under a top-level key in a YAML file.
func (g *Generator) ReplaceInYAMLFile(filePath, key string, length int) error {
	value, err := g.String(length)
	if err != nil {
		return err
	}
	return replaceInYAMLFile(filePath, key, value)
}

func replaceInEnvFile(filePath, key, value string) error {
	content, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	line := key + "=" + value
	pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=.*$`)
	if pattern.Match(content) {
		content = pattern.ReplaceAll(content, []byte(line))
	} else {
		if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
			content = append(content, '\n')
		}
		content = append(content, line...)
		content = append(content, '\n')
	}
	return os.WriteFile(filePath, content, 0o600)
}

func replaceInJSONFile(filePath, key, value string) error {
	data := make(map[string]any)
	content, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("secret: parse %s: %w", filePath, err)
		}
	}
	data[key] = value
	updated, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, append(updated, '\n'), 0o600)
}

func replaceInYAMLFile(filePath, key, value string) error {
	data := make(map[string]any)
	content, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(content) > 0 {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("secret: parse %s: %w", filePath, err)
		}
	}
	data[key] = value
	updated, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, updated, 0o600)
}

// GenerateHMACKey returns a fresh signing secret for the given HS digest size
// using the default entropy source.
func GenerateHMACKey(bits int) ([]byte, error) {
	return NewGenerator().HMACKey(bits)
}

// GenerateSecretString returns a fresh secret string of the given length
// using the default entropy source.
func GenerateSecretString(length int) (string, error) {
	return NewGenerator().String(length)
}
